// Command ilscope is a thin CLI wrapper over the session package: it
// loads a module from a fixture YAML file, builds one Session, and runs
// a single requested operation, printing its result to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/viant/ilscope/cancel"
	"github.com/viant/ilscope/config"
	"github.com/viant/ilscope/depgraph"
	"github.com/viant/ilscope/diagram"
	"github.com/viant/ilscope/fixture"
	"github.com/viant/ilscope/search"
	"github.com/viant/ilscope/session"
	"github.com/viant/ilscope/xref"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: ilscope [-module path] [-config path] <command> [args...]

commands:
  diagnostics
  types [namespace]
  type <fullName>
  cfg <typeName> <methodName>
  dominators <typeName> <methodName>
  liveness <typeName> <methodName>
  reaching-defs <typeName> <methodName>
  callgraph
  xref-type <typeName>
  xref-calls <typeName> <methodName>
  xref-fields <typeName> <fieldName>
  xref-overrides <typeName> <methodName>
  xref-impls <ifaceName> <methodName>
  depgraph <assembly|namespace|type> [rootType] [maxDepth]
  search <query> [type|member|literal|token]
  patterns [typeFilter]
  obfuscation`)
}

func main() {
	modulePath := flag.String("module", "", "path to a fixture module YAML file (required)")
	configPath := flag.String("config", "", "path to a tunables YAML file (optional)")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if *modulePath == "" || len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *modulePath, *configPath, args); err != nil {
		fmt.Fprintln(os.Stderr, "ilscope:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, modulePath, configPath string, args []string) error {
	m, err := fixture.LoadModule(ctx, modulePath)
	if err != nil {
		return fmt.Errorf("load module: %w", err)
	}

	cfg := config.Default()
	if configPath != "" {
		cfg, err = config.Load(ctx, configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	s := session.NewWithConfig(m, cfg)
	token := cancel.FromContext(ctx)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "diagnostics":
		for _, d := range s.Diagnostics() {
			fmt.Printf("%s: %s\n", d.Category, d.Message)
		}

	case "types":
		ns := ""
		if len(rest) > 0 {
			ns = rest[0]
		}
		res := s.BrowseNamespace(ns)
		if !res.IsSuccess() {
			return res.Err
		}
		for _, te := range res.Value {
			fmt.Println(te.FullName)
		}

	case "type":
		if len(rest) != 1 {
			return fmt.Errorf("type requires <fullName>")
		}
		te, ok := s.BuildTypeIndex().ByFullName(rest[0])
		if !ok {
			return fmt.Errorf("type %q not found", rest[0])
		}
		res := s.GetTypeDetail(te.ID)
		if !res.IsSuccess() {
			return res.Err
		}
		fmt.Printf("%s (%s)\n", res.Value.Type.FullName, res.Value.Type.Visibility)
		for _, me := range res.Value.Members {
			fmt.Printf("  %s %s\n", me.Kind, me.Name)
		}

	case "cfg":
		if len(rest) != 2 {
			return fmt.Errorf("cfg requires <typeName> <methodName>")
		}
		res := s.BuildCFG(rest[0], rest[1])
		if !res.IsSuccess() {
			return res.Err
		}
		fmt.Print(diagram.CFG(res.Value))

	case "dominators":
		if len(rest) != 2 {
			return fmt.Errorf("dominators requires <typeName> <methodName>")
		}
		g := s.BuildCFG(rest[0], rest[1])
		if !g.IsSuccess() {
			return g.Err
		}
		res := s.AnalyzeDominators(g.Value)
		if !res.IsSuccess() {
			return res.Err
		}
		for blockID, idom := range res.Value.Dominators.IDom {
			fmt.Printf("%s idom=%s\n", blockID, idom)
		}

	case "liveness":
		if len(rest) != 2 {
			return fmt.Errorf("liveness requires <typeName> <methodName>")
		}
		g := s.BuildCFG(rest[0], rest[1])
		if !g.IsSuccess() {
			return g.Err
		}
		res := s.AnalyzeLiveness(g.Value)
		if !res.IsSuccess() {
			return res.Err
		}
		for blockID, live := range res.Value.LiveIn {
			fmt.Printf("%s live_in=%v\n", blockID, live)
		}

	case "reaching-defs":
		if len(rest) != 2 {
			return fmt.Errorf("reaching-defs requires <typeName> <methodName>")
		}
		g := s.BuildCFG(rest[0], rest[1])
		if !g.IsSuccess() {
			return g.Err
		}
		res := s.AnalyzeReachingDefs(g.Value)
		if !res.IsSuccess() {
			return res.Err
		}
		for blockID, defs := range res.Value.ReachOut {
			fmt.Printf("%s reach_out=%v\n", blockID, defs)
		}

	case "callgraph":
		res := s.BuildCallGraph(token)
		if !res.IsSuccess() {
			return res.Err
		}
		for _, e := range res.Value.Edges {
			fmt.Printf("%s -> %s [%s]\n", e.CallerID, e.CalleeID, e.Kind)
		}
		recursion := s.DetectRecursion(res.Value)
		if !recursion.IsSuccess() {
			return recursion.Err
		}
		for _, r := range recursion.Value {
			fmt.Printf("recursion: %s %v\n", r.Kind, r.Cycle)
		}

	case "xref-type":
		if len(rest) != 1 {
			return fmt.Errorf("xref-type requires <typeName>")
		}
		res := s.FindReferencesToType(rest[0], token)
		if !res.IsSuccess() {
			return res.Err
		}
		printReferences(res.Value)

	case "xref-calls":
		if len(rest) != 2 {
			return fmt.Errorf("xref-calls requires <typeName> <methodName>")
		}
		res := s.FindCallsToMethod(rest[0], rest[1], token)
		if !res.IsSuccess() {
			return res.Err
		}
		printReferences(res.Value)

	case "xref-fields":
		if len(rest) != 2 {
			return fmt.Errorf("xref-fields requires <typeName> <fieldName>")
		}
		res := s.FindFieldUsages(rest[0], rest[1], token)
		if !res.IsSuccess() {
			return res.Err
		}
		printReferences(res.Value)

	case "xref-overrides":
		if len(rest) != 2 {
			return fmt.Errorf("xref-overrides requires <typeName> <methodName>")
		}
		res := s.FindMethodOverrides(rest[0], rest[1], token)
		if !res.IsSuccess() {
			return res.Err
		}
		printReferences(res.Value)

	case "xref-impls":
		if len(rest) != 2 {
			return fmt.Errorf("xref-impls requires <ifaceName> <methodName>")
		}
		res := s.FindInterfaceImpls(rest[0], rest[1], token)
		if !res.IsSuccess() {
			return res.Err
		}
		printReferences(res.Value)

	case "depgraph":
		if len(rest) < 1 {
			return fmt.Errorf("depgraph requires <assembly|namespace|type> [rootType] [maxDepth]")
		}
		level := depgraph.Level(rest[0])
		rootType, maxDepth := "", 0
		if len(rest) > 1 {
			rootType = rest[1]
		}
		if len(rest) > 2 {
			d, err := strconv.Atoi(rest[2])
			if err != nil {
				return fmt.Errorf("maxDepth must be an integer: %w", err)
			}
			maxDepth = d
		}
		res := s.BuildDependencyGraph(level, rootType, maxDepth)
		if !res.IsSuccess() {
			return res.Err
		}
		fmt.Print(diagram.DependencyGraph(res.Value))

	case "search":
		if len(rest) < 1 {
			return fmt.Errorf("search requires <query> [type|member|literal|token]")
		}
		req := search.Request{Query: rest[0]}
		if len(rest) > 1 {
			req.Mode = search.Mode(rest[1])
		}
		res := s.Search(req, token)
		if !res.IsSuccess() {
			return res.Err
		}
		for _, r := range res.Value.Results {
			fmt.Printf("%s %s %s\n", r.Kind, r.ID, r.Name)
		}
		if res.Value.HasMore {
			fmt.Println("...(more results truncated)")
		}

	case "patterns":
		filter := ""
		if len(rest) > 0 {
			filter = rest[0]
		}
		res := s.DetectPatterns(filter)
		if !res.IsSuccess() {
			return res.Err
		}
		for _, p := range res.Value {
			fmt.Printf("%s %s (confidence %.2f)\n", p.Kind, p.TypeName, p.Confidence)
		}

	case "obfuscation":
		res := s.DetectObfuscation()
		if !res.IsSuccess() {
			return res.Err
		}
		fmt.Printf("obfuscated=%v score=%.1f confidence=%s tools=%v\n",
			res.Value.IsObfuscated, res.Value.Score, res.Value.Confidence, res.Value.DetectedTools)
		for _, ind := range res.Value.Indicators {
			fmt.Printf("  %s: %s\n", ind.Category, ind.Description)
		}

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func printReferences(refs []xref.Reference) {
	for _, r := range refs {
		fmt.Printf("%s %s.%s offset=%d\n", r.Kind, r.SourceType, r.SourceMember, r.Offset)
	}
}
