// gozx reduces ZX-diagrams with the confluent rewrite engine and expands
// what remains into exact stabilizer terms.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/zxcalc/gozx"
	"github.com/zxcalc/gozx/libzx"
	"github.com/zxcalc/gozx/libzx/catalog"
	"github.com/zxcalc/gozx/libzx/decompose"
)

type runOpts struct {
	expr        string
	inPath      string
	strategy    string
	decompose   bool
	workers     int
	maxTerms    int64
	cats        bool
	pairs       bool
	save        bool
	catalogPath string
}

func main() {

	flag.Set("logtostderr", "true")
	flag.Set("v", "2")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	opts := runOpts{}
	flag.StringVar(&opts.expr, "expr", "", "diagram expression to load")
	flag.StringVar(&opts.inPath, "in", "", "JSON diagram file to load")
	flag.StringVar(&opts.strategy, "strategy", "full",
		"simplification strategy: "+strings.Join(libzx.StrategyNames(), ", "))
	flag.BoolVar(&opts.decompose, "decompose", false, "expand the non-Clifford remainder into stabilizer terms")
	flag.IntVar(&opts.workers, "workers", 0, "decomposition workers; 0 means all cores")
	flag.Int64Var(&opts.maxTerms, "max-terms", -1, "terminal term budget; negative means unlimited")
	flag.BoolVar(&opts.cats, "cats", true, "branch on cat states")
	flag.BoolVar(&opts.pairs, "pairs", true, "branch on T spider pairs")
	flag.BoolVar(&opts.save, "save", false, "print every terminal term")
	flag.StringVar(&opts.catalogPath, "catalog", "", "persistent decomposition catalog path")

	flag.Parse()

	if err := run(opts, os.Stdout); err != nil {
		klog.Flush()
		klog.Fatalf("%v", err)
	}
	klog.Flush()
}

func run(opts runOpts, out io.Writer) error {
	d, err := loadDiagram(opts)
	if err != nil {
		return err
	}
	defer d.Reclaim()

	strategy, ok := libzx.StrategyByName(opts.strategy)
	if !ok {
		return errors.Errorf("unknown strategy %q (have: %s)",
			opts.strategy, strings.Join(libzx.StrategyNames(), ", "))
	}
	firings, err := strategy(d)
	if err != nil {
		return err
	}
	klog.V(1).Infof("%s fired %d rewrites: %v", opts.strategy, firings, d)

	if !opts.decompose {
		d.WriteAsString(out, gozx.DefaultPrintOpts())
		fmt.Fprintln(out)
		return nil
	}

	decOpts := decompose.DefaultDecomposeOpts()
	decOpts.Workers = opts.workers
	decOpts.MaxTerms = opts.maxTerms
	decOpts.UseCats = opts.cats
	decOpts.UsePairs = opts.pairs
	decOpts.SaveTerms = opts.save

	if opts.catalogPath != "" {
		cat, err := catalog.OpenCatalog(catalog.CatalogOpts{DbPathName: opts.catalogPath})
		if err != nil {
			return err
		}
		defer cat.Close()
		decOpts.Cache = cat
	}

	res, err := decompose.Decompose(context.Background(), d, decOpts)
	if err != nil {
		return err
	}
	if res.Incomplete {
		klog.Warningf("%v", gozx.ErrBudgetExhausted)
	}
	for _, branchErr := range res.BranchErrs {
		klog.Warningf("branch failed: %v", branchErr)
	}

	fmt.Fprintf(out, "terms=%d,incomplete=%v,cacheHits=%d\n", res.TermCount, res.Incomplete, res.CacheHits)
	if res.Sum != nil {
		fmt.Fprintf(out, "sum=%s\n", res.Sum)
	}
	if opts.save {
		printOpts := gozx.PrintOpts{Label: "term", Scalar: true}
		decompose.StreamTerms(res).Print(nopCloser{out}, printOpts).PullAll()
	}
	return nil
}

func loadDiagram(opts runOpts) (*libzx.Diagram, error) {
	switch {
	case opts.expr != "":
		return libzx.ParseDiagram(opts.expr)
	case opts.inPath != "":
		data, err := os.ReadFile(opts.inPath)
		if err != nil {
			return nil, err
		}
		return libzx.DecodeJSON(data)
	}
	return nil, errors.Errorf("nothing to do: pass -expr or -in")
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}
