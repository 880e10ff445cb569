package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-mdlive/internal/hints"
)

// versionTimeout bounds each "--version" probe.
const versionTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status    string         `json:"status"` // "ready", "warnings", "errors"
	Compilers []compilerInfo `json:"compilers"`
	Chrome    chromeInfo     `json:"chrome"`
	Env       envInfo        `json:"environment"`
	System    systemInfo     `json:"system"`
	Warnings  []string       `json:"warnings,omitempty"`
	Errors    []string       `json:"errors,omitempty"`
}

// compilerInfo holds one diagram compiler's detection result.
type compilerInfo struct {
	Name    string `json:"name"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// doctorProbe abstracts the host lookups so tests can fake them.
type doctorProbe struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	version    func(bin string, args ...string) (string, error)
	findChrome func() (string, bool)
	getenv     func(string) string
	tempDir    func() string
}

func defaultProbe() doctorProbe {
	return doctorProbe{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		version:    commandVersion,
		findChrome: launcher.LookPath,
		getenv:     os.Getenv,
		tempDir:    os.TempDir,
	}
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	result := runDoctor(defaultProbe())

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(p doctorProbe) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  p.getenv("ROD_NO_SANDBOX"),
			BrowserBin: p.getenv("ROD_BROWSER_BIN"),
		},
	}

	checkCompilers(result, p)
	checkChrome(result, p)
	checkEnvironment(result, p)
	checkSystem(result, p)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkCompilers looks for d2, java with plantuml.jar, and mmdc. A missing
// compiler only disables its diagram kind, so it is a warning.
func checkCompilers(result *doctorResult, p doctorProbe) {
	binOr := func(key, fallback string) string {
		if v := p.getenv(key); v != "" {
			return v
		}
		return fallback
	}

	d2 := probeBinary(p, "d2", binOr("MDLIVE_D2_BIN", "d2"), "--version")
	java := probeBinary(p, "java", binOr("MDLIVE_JAVA_BIN", "java"), "-version")
	mmdc := probeBinary(p, "mermaid", binOr("MDLIVE_MMDC_BIN", "mmdc"), "--version")

	jar := compilerInfo{Name: "plantuml.jar", Path: binOr("MDLIVE_PLANTUML_JAR", "plantuml.jar")}
	if _, err := p.stat(jar.Path); err == nil {
		jar.Found = true
	}

	result.Compilers = []compilerInfo{d2, java, jar, mmdc}

	if !d2.Found {
		result.Warnings = append(result.Warnings, "d2 not found"+hints.ForCompiler("d2"))
	}
	if !java.Found || !jar.Found {
		result.Warnings = append(result.Warnings, "PlantUML unavailable"+hints.ForCompiler("plantuml"))
	}
	if !mmdc.Found {
		result.Warnings = append(result.Warnings, "mmdc not found"+hints.ForCompiler("mermaid"))
	}
}

func probeBinary(p doctorProbe, name, bin string, versionArgs ...string) compilerInfo {
	info := compilerInfo{Name: name}
	path, err := p.lookPath(bin)
	if err != nil {
		return info
	}
	info.Found = true
	info.Path = path
	if v, err := p.version(path, versionArgs...); err == nil {
		info.Version = v
	}
	return info
}

// commandVersion runs bin with args and returns the first output line.
func commandVersion(bin string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput() // #nosec G204 -- probing known tools
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return first, nil
}

// checkChrome detects Chrome/Chromium, needed for PDF export only.
func checkChrome(result *doctorResult, p doctorProbe) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = p.findChrome()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found, PDF export disabled. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := p.stat(chromePath); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	if v, err := p.version(chromePath, "--version"); err == nil {
		result.Chrome.Version = v
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, p doctorProbe) {
	result.Env.Container, result.Env.ContainerHint = isContainer(p)

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if p.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(p doctorProbe) (bool, string) {
	if p.getenv("MDLIVE_CONTAINER") == "1" {
		return true, "MDLIVE_CONTAINER=1"
	}
	if _, err := p.stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := p.getenv("container"); v != "" {
		return true, "container=" + v
	}
	if p.getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory is writable. Preview pages fall
// back to it when there is no document directory.
func checkSystem(result *doctorResult, p doctorProbe) {
	tmpDir := p.tempDir()
	testFile := filepath.Join(tmpDir, "mdlive-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mdlive doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Diagram compilers")
	for _, c := range r.Compilers {
		switch {
		case c.Found && c.Version != "":
			fmt.Fprintf(w, "  [OK] %s: %s (%s)\n", c.Name, c.Path, c.Version)
		case c.Found:
			fmt.Fprintf(w, "  [OK] %s: %s\n", c.Name, c.Path)
		default:
			fmt.Fprintf(w, "  [WARN] %s: not found\n", c.Name)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium (PDF export)")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to preview")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
