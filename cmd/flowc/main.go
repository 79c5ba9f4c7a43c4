package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/pterm/pterm"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/flowtree"
	"github.com/wippyai/flowtree/internal/fixture"
	"github.com/wippyai/flowtree/tree"
)

func main() {
	var (
		bodyFile    = flag.String("body", "", "Path to a YAML function body")
		configFile  = flag.String("config", "", "Path to a TOML translator config")
		failure     = flag.String("failure", "", "Failure strategy override (flag, exception)")
		raw         = flag.Bool("raw", false, "Dump the raw tree structure")
		steps       = flag.Int("steps", 0, "Run the translated body, stepping a generator this many turns")
		interactive = flag.Bool("i", false, "Interactive generator stepper")
		verbose     = flag.Bool("v", false, "Log pass details")
	)
	flag.Parse()

	if *bodyFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: flowc -body <body.yaml> [-config flowc.toml] [-failure flag|exception] [-raw] [-steps n]")
		fmt.Fprintln(os.Stderr, "       flowc -body <body.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	log := zap.NewNop()
	if *verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
	}
	flowtree.SetLogger(log)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		pterm.DisableColor()
	}

	if err := run(*bodyFile, *configFile, *failure, *raw, *steps, *interactive); err != nil {
		printError("Error", err)
		os.Exit(1)
	}
}

func run(bodyFile, configFile, failure string, raw bool, steps int, interactive bool) error {
	f, err := fixture.Load(bodyFile)
	if err != nil {
		return err
	}
	tc, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if failure != "" {
		tc.FailureStrategy = failure
	}
	cfg, err := tc.translatorConfig()
	if err != nil {
		return err
	}
	tr, err := flowtree.New(cfg)
	if err != nil {
		return err
	}
	res, err := tr.Translate(&flowtree.Body{
		Name:        f.Name,
		Graph:       f.Graph,
		Suspendable: f.Suspendable,
		OutputName:  f.Output,
		OutputType:  f.OutputType,
	})
	if err != nil {
		return err
	}

	if interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		return runInteractive(f.Name, res, tc)
	}

	printHeader(f.Name, cfg)
	fmt.Println(tree.RenderIndented(res.Tree))
	if raw {
		pterm.DefaultSection.Println("Raw tree")
		pretty.Println(res.Tree)
	}
	if res.Coroutine != nil {
		printCoroutine(res.Coroutine)
	}
	printDiagnostics(res.Diagnostics)

	if steps > 0 {
		return printTurns(res, tc, steps)
	}
	return nil
}
