package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/deepnoodle-ai/lmnodes/internal/credstore"
	"github.com/deepnoodle-ai/lmnodes/internal/tablewriter"
	"github.com/deepnoodle-ai/lmnodes/llm"
	"github.com/deepnoodle-ai/lmnodes/llms"
	"github.com/deepnoodle-ai/lmnodes/llms/azureopenai"
	"github.com/deepnoodle-ai/lmnodes/log"
	"github.com/deepnoodle-ai/lmnodes/node"
	"github.com/deepnoodle-ai/wonton/cli"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// metricsNodes builds node types that can record model traffic.
var metricsNodes = map[string]func(m *llms.Metrics) node.Type{
	"lmChatAzureOpenAi": func(m *llms.Metrics) node.Type {
		return azureopenai.New(azureopenai.WithMetrics(m))
	},
}

func lookupNode(name string) (node.Type, error) {
	t, ok := node.Lookup(name)
	if !ok {
		return nil, cli.Errorf("unknown node type %q (run 'lmnodes nodes' to list them)", name)
	}
	return t, nil
}

func newHost(ctx context.Context, desc *node.Description, params map[string]any) *node.Context {
	return &node.Context{
		NodeInfo: &node.Node{
			ID:          uuid.NewString(),
			Name:        desc.DisplayName,
			Type:        desc.Name,
			TypeVersion: desc.Version,
		},
		Description:      desc,
		Parameters:       applyDefaults(desc, params),
		CredentialSource: credstore.Chain{credstore.EnvStore{}, credstore.NewKeyringStore()},
		Log:              log.Ctx(ctx),
	}
}

func registerNodesCommand(app *cli.App) {
	app.Command("nodes").
		Description("List the registered node types").
		NoArgs().
		Run(func(ctx *cli.Context) error {
			if err := parseGlobalFlags(ctx); err != nil {
				return err
			}
			var rows [][]string
			for _, t := range node.DefaultRegistry().Types() {
				desc := t.Description()
				var entryPoints []string
				if _, ok := t.(node.SupplyDataType); ok {
					entryPoints = append(entryPoints, "supply")
				}
				if loader, ok := t.(node.LoadOptionsType); ok {
					for _, method := range sortedMethodNames(loader) {
						entryPoints = append(entryPoints, "options:"+method)
					}
				}
				rows = append(rows, []string{
					desc.Name,
					desc.DisplayName,
					fmt.Sprint(desc.Version),
					strings.Join(entryPoints, ", "),
				})
			}
			printTable(os.Stdout, []string{"NAME", "DISPLAY NAME", "VERSION", "ENTRY POINTS"}, rows)
			return nil
		})
}

func registerDescribeCommand(app *cli.App) {
	app.Command("describe").
		Description("Print a node type's description as YAML").
		Args("node").
		Run(func(ctx *cli.Context) error {
			if err := parseGlobalFlags(ctx); err != nil {
				return err
			}
			t, err := lookupNode(ctx.Arg(0))
			if err != nil {
				return err
			}
			data, err := t.Description().YAML()
			if err != nil {
				return cli.Errorf("failed to render description: %v", err)
			}
			fmt.Print(string(data))
			return nil
		})
}

func registerOptionsCommand(app *cli.App) {
	app.Command("options").
		Description("Run a node's dropdown loader").
		Long("Run a load-options method of a node against the given form values and print the dropdown entries.").
		Args("node", "method").
		Flags(
			cli.Strings("param", "p").Help("Form value (format: key=value). Can be specified multiple times"),
		).
		Run(func(ctx *cli.Context) error {
			if err := parseGlobalFlags(ctx); err != nil {
				return err
			}
			t, err := lookupNode(ctx.Arg(0))
			if err != nil {
				return err
			}
			loader, ok := t.(node.LoadOptionsType)
			if !ok {
				return cli.Errorf("node type %q has no dropdown loaders", ctx.Arg(0))
			}
			methodName := ctx.Arg(1)
			method, ok := loader.LoadOptionsMethods()[methodName]
			if !ok {
				return cli.Errorf("unknown method %q (available: %s)", methodName,
					strings.Join(sortedMethodNames(loader), ", "))
			}
			params, err := parseAssignments(ctx.Strings("param"), stringProperties(t.Description().Properties))
			if err != nil {
				return cli.Errorf("%v", err)
			}

			goCtx := newContext()
			options, err := method(goCtx, newHost(goCtx, t.Description(), params))
			if err != nil {
				return cli.Errorf("%s failed: %v", methodName, err)
			}
			if len(options) == 0 {
				fmt.Println(mutedStyle.Sprint("No options"))
				return nil
			}
			rows := make([][]string, 0, len(options))
			for _, o := range options {
				rows = append(rows, []string{o.Name, fmt.Sprint(o.Value), o.Description})
			}
			printTable(os.Stdout, []string{"NAME", "VALUE", "DESCRIPTION"}, rows)
			return nil
		})
}

func registerSupplyCommand(app *cli.App) {
	app.Command("supply").
		Description("Build a node's chat model and optionally send it a prompt").
		Args("node").
		Flags(
			cli.Strings("param", "p").Help("Node parameter (format: key=value). Can be specified multiple times"),
			cli.Strings("option", "o").Help("Entry of the node's options collection (format: key=value)"),
			cli.String("prompt", "").Help("Message to send to the model"),
			cli.String("system-prompt", "s").Help("System prompt sent with the message"),
			cli.Int("max-tokens", "").Help("Maximum tokens to generate for the message (overrides the node option)"),
			cli.Float("temperature", "t").Default(-1).Help("Sampling temperature for the message (overrides the node option)"),
			cli.Bool("metrics", "").Help("Print the recorded metrics when done"),
		).
		Run(func(ctx *cli.Context) error {
			if err := parseGlobalFlags(ctx); err != nil {
				return err
			}
			return runSupply(ctx)
		})
}

func runSupply(ctx *cli.Context) error {
	goCtx := newContext()
	name := ctx.Arg(0)

	registry := prometheus.NewRegistry()
	var t node.Type
	if build, ok := metricsNodes[name]; ok {
		t = build(llms.NewMetrics(registry))
	} else {
		var err error
		if t, err = lookupNode(name); err != nil {
			return err
		}
	}
	supplier, ok := t.(node.SupplyDataType)
	if !ok {
		return cli.Errorf("node type %q does not supply data", name)
	}

	stringKeys := stringProperties(t.Description().Properties)
	params, err := parseAssignments(ctx.Strings("param"), stringKeys)
	if err != nil {
		return cli.Errorf("%v", err)
	}
	options, err := parseAssignments(ctx.Strings("option"), stringKeys)
	if err != nil {
		return cli.Errorf("%v", err)
	}
	if len(options) > 0 {
		params["options"] = options
	}

	host := newHost(goCtx, t.Description(), params)
	data, err := supplier.SupplyData(goCtx, host, 0)
	if err != nil {
		return cli.Errorf("%v", err)
	}
	if data.CloseFunction != nil {
		defer data.CloseFunction(goCtx)
	}
	fmt.Printf("%s %T\n", successStyle.Sprint("✓ supplied"), data.Response)

	prompt := ctx.String("prompt")
	if prompt == "" {
		return nil
	}
	model, ok := data.Response.(llm.LLM)
	if !ok {
		return cli.Errorf("%T cannot generate responses", data.Response)
	}
	opts := generateOptions(ctx.String("system-prompt"), ctx.Int("max-tokens"), ctx.Float64("temperature"))
	response, genErr := model.Generate(goCtx, []*llm.Message{llm.NewUserMessage(prompt)}, opts...)

	for i, run := range host.Runs() {
		status := successStyle.Sprint("ok")
		if run.Err != nil {
			status = warningStyle.Sprint(run.Err.Error())
		}
		fmt.Printf("%s %d: %s\n", mutedStyle.Sprint("run"), i, status)
	}
	if ctx.Bool("metrics") {
		families, err := registry.Gather()
		if err != nil {
			return cli.Errorf("failed to gather metrics: %v", err)
		}
		printMetrics(os.Stdout, families)
	}
	if genErr != nil {
		return cli.Errorf("error generating response: %v", genErr)
	}

	fmt.Println()
	fmt.Println(response.Content)
	fmt.Println()
	fmt.Println(mutedStyle.Sprintf("model=%s stop=%s input_tokens=%d output_tokens=%d reasoning_tokens=%d",
		response.Model, response.StopReason,
		response.Usage.InputTokens, response.Usage.OutputTokens, response.Usage.ReasoningTokens))
	return nil
}

// generateOptions turns the supply flags into per-call options. Zero max
// tokens and a negative temperature leave the node's settings in place.
func generateOptions(systemPrompt string, maxTokens int, temperature float64) []llm.Option {
	var opts []llm.Option
	if systemPrompt != "" {
		opts = append(opts, llm.WithSystemPrompt(systemPrompt))
	}
	if maxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(maxTokens))
	}
	if temperature >= 0 {
		opts = append(opts, llm.WithTemperature(temperature))
	}
	return opts
}

func registerCredentialsCommand(app *cli.App) {
	group := app.Group("credentials").
		Description("Manage credentials stored in the OS keyring")

	group.Command("set").
		Description("Store credentials for a credential type").
		Long("Store credentials for a credential type, e.g. 'lmnodes credentials set azureOpenAiApi -f apiKey=... -f resourceName=...'.").
		Args("type").
		Flags(
			cli.Strings("field", "f").Help("Credential field (format: key=value). Can be specified multiple times"),
		).
		Run(func(ctx *cli.Context) error {
			if err := parseGlobalFlags(ctx); err != nil {
				return err
			}
			fields, err := parseAssignments(ctx.Strings("field"), nil)
			if err != nil {
				return cli.Errorf("%v", err)
			}
			credentialType := ctx.Arg(0)
			if err := credstore.NewKeyringStore().Set(credentialType, node.Credentials(fields)); err != nil {
				return cli.Errorf("failed to store credentials: %v", err)
			}
			fmt.Println(successStyle.Sprintf("✓ stored %s", credentialType))
			return nil
		})

	group.Command("show").
		Description("Show stored credentials with secrets masked").
		Args("type").
		Run(func(ctx *cli.Context) error {
			if err := parseGlobalFlags(ctx); err != nil {
				return err
			}
			credentialType := ctx.Arg(0)
			creds, err := credstore.Chain{credstore.EnvStore{}, credstore.NewKeyringStore()}.Get(credentialType)
			if err != nil {
				return cli.Errorf("%v", err)
			}
			fmt.Println(boldStyle.Sprint(credentialType))
			printTable(os.Stdout, []string{"FIELD", "VALUE"}, maskCredentials(creds),
				tablewriter.WithStyle(tablewriter.StyleBoxed))
			return nil
		})

	group.Command("delete").
		Description("Remove stored credentials").
		Args("type").
		Run(func(ctx *cli.Context) error {
			if err := parseGlobalFlags(ctx); err != nil {
				return err
			}
			credentialType := ctx.Arg(0)
			if err := credstore.NewKeyringStore().Delete(credentialType); err != nil {
				return cli.Errorf("%v", err)
			}
			fmt.Println(successStyle.Sprintf("✓ deleted %s", credentialType))
			return nil
		})

	group.Command("env").
		Description("List the environment variables read for a credential type").
		Args("type").
		Run(func(ctx *cli.Context) error {
			vars := credstore.EnvVars(ctx.Arg(0))
			if len(vars) == 0 {
				return cli.Errorf("no environment mapping for %q", ctx.Arg(0))
			}
			for _, v := range vars {
				fmt.Println(v)
			}
			return nil
		})
}

func sortedMethodNames(loader node.LoadOptionsType) []string {
	methods := loader.LoadOptionsMethods()
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
