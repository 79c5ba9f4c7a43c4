package main

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"

	"github.com/wippyai/flowtree"
	"github.com/wippyai/flowtree/internal/interp"
	"github.com/wippyai/flowtree/tree"
)

var (
	successColorFG = pterm.FgLightGreen
	successStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	warnColorFG    = pterm.FgYellow
	warnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	errorColorFG   = pterm.FgRed
	errorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
)

func printError(tag string, err error) {
	errorStyleBG.Print(tag)
	errorColorFG.Println(" " + err.Error())
}

func printHeader(name string, cfg flowtree.Config) {
	pterm.DefaultSection.Println(name)
	successStyleBG.Print("config")
	successColorFG.Println(fmt.Sprintf(" failure=%s void=%s coroutines=%s", cfg.Failure, cfg.Void, cfg.Coroutines))
	fmt.Println()
}

func printCoroutine(cc *tree.ConvertedCoroutine) {
	pterm.DefaultSection.Println("State machine")
	fmt.Printf("helper %s, generator %s, %d persistent declarations\n", cc.Helper, cc.Generator, len(cc.Persistent))
	if len(cc.NullAdjust) == 0 {
		return
	}
	adjusted := make([]string, 0, len(cc.NullAdjust))
	for name, t := range cc.NullAdjust {
		adjusted = append(adjusted, fmt.Sprintf("%s: %s", name, t))
	}
	sort.Strings(adjusted)
	for _, a := range adjusted {
		warnStyleBG.Print("not-null")
		warnColorFG.Println(" " + a)
	}
}

func printDiagnostics(diags []flowtree.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	pterm.DefaultSection.Println("Diagnostics")
	for _, d := range diags {
		errorStyleBG.Print(string(d.Kind))
		errorColorFG.Println(" " + d.String())
	}
}

// printTurns runs the body; a generator is stepped up to n turns.
func printTurns(res *flowtree.Result, tc *tomlConfig, n int) error {
	pterm.DefaultSection.Println("Run")
	v, err := tc.interpreter().Run(res.Tree)
	if err != nil {
		return err
	}
	gen, ok := v.(*interp.Generator)
	if !ok {
		successStyleBG.Print("result")
		successColorFG.Println(" " + show(v))
		return nil
	}
	data := pterm.TableData{{"turn", "result", "awaiting"}}
	for i := 1; i <= n; i++ {
		t := step(gen)
		data = append(data, []string{fmt.Sprint(i), t.result, t.awaiting})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

type turn struct {
	result   string
	awaiting string
	failed   bool
}

func step(gen *interp.Generator) turn {
	r, err := gen.Next()
	var t turn
	switch {
	case err != nil:
		t.result, t.failed = "error: "+err.Error(), true
	case r.Done:
		t.result = "done"
	default:
		t.result = show(r.Value)
	}
	if gen.Awaiting != nil {
		t.awaiting = fmt.Sprintf("promise %s", show(gen.Awaiting.Value))
	}
	return t
}

func show(v interp.Value) string {
	if v == tree.Void {
		return "void"
	}
	return fmt.Sprint(v)
}
