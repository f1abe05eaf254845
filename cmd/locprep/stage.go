package main

import (
	"fmt"

	"github.com/alnah/go-locprep/internal/fileutil"
)

// artifact is one file staged to the output directory.
type artifact struct {
	name string
	data []byte
}

// stage writes artifacts in order to dir and returns the written paths.
// It stops at the first failure; artifacts already written are kept.
func stage(dir string, artifacts []artifact, force bool) ([]string, error) {
	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		path, err := fileutil.WriteArtifact(dir, a.name, a.data, force)
		if err != nil {
			return paths, fmt.Errorf("%w: %w", ErrWriteArtifact, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// printCreated lists staged paths unless quiet.
func printCreated(paths []string, quiet bool, env *Environment) {
	if quiet {
		return
	}
	for _, p := range paths {
		fmt.Fprintf(env.Stdout, "Created %s\n", p)
	}
}
