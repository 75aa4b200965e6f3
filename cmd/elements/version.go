package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// buildInfo describes the running binary.
type buildInfo struct {
	Version   string            `json:"version"`
	Commit    string            `json:"commit"`
	Date      string            `json:"date"`
	GoVersion string            `json:"goVersion"`
	Platform  string            `json:"platform"`
	Module    string            `json:"module,omitempty"`
	Deps      map[string]string `json:"deps,omitempty"`
}

// reportedDeps are the libraries whose versions change registry output.
var reportedDeps = []string{
	"golang.org/x/net",
	"gopkg.in/yaml.v3",
	"github.com/aws/aws-sdk-go-v2/service/s3",
}

func readBuildInfo() buildInfo {
	info := buildInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.Module = bi.Main.Path
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, dep := range bi.Deps {
		for _, want := range reportedDeps {
			if dep.Path == want {
				if info.Deps == nil {
					info.Deps = make(map[string]string)
				}
				info.Deps[dep.Path] = dep.Version
			}
		}
	}
	return info
}

func writeVersion(w io.Writer, info buildInfo, short, asJSON bool) error {
	switch {
	case short:
		_, err := fmt.Fprintln(w, info.Version)
		return err
	case asJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "elements %s (%s, built %s)\n", info.Version, info.Commit, info.Date)
	fmt.Fprintf(&b, "  %s %s\n", info.GoVersion, info.Platform)
	for _, path := range reportedDeps {
		if v, ok := info.Deps[path]; ok {
			fmt.Fprintf(&b, "  %s %s\n", path, v)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func versionCmd() *cobra.Command {
	var short, asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeVersion(os.Stdout, readBuildInfo(), short, asJSON)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")

	return cmd
}
