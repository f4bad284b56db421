// Command convert_bundle rewrites a model bundle in another encoding, for
// example JSON to YAML. The bundle is decoded and validated on the way.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"modelcheck/ml"
)

func main() {
	in := flag.String("in", "./models/diabetes_model.json", "source bundle path")
	out := flag.String("out", "", "destination bundle path (.json, .yaml or .yml)")
	name := flag.String("name", "", "override the bundle name")
	flag.Parse()

	if *out == "" {
		log.Fatal("out is required")
	}
	if err := convert(*in, *out, *name); err != nil {
		log.Fatalf("failed to convert bundle: %v", err)
	}
	fmt.Printf("bundle saved to %s\n", *out)
}

func convert(in, out, name string) error {
	if filepath.Clean(in) == filepath.Clean(out) {
		return fmt.Errorf("source and destination are the same file")
	}
	bundle, err := ml.LoadBundle(in)
	if err != nil {
		return err
	}
	if name != "" {
		bundle.Name = name
	}
	return bundle.Save(out)
}
