package modules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/installer/host/fakehost"
	"github.com/stormos/installer/lib/log/testlogger"
	proto "github.com/stormos/installer/proto/installer"
)

func writeModules(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		perm := os.FileMode(0644)
		if strings.HasSuffix(name, ".sh") {
			perm = 0755
		}
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), perm)
		if err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func standardModules(t *testing.T) string {
	return writeModules(t, map[string]string{
		"10-network.sh": "echo network\n",
		"20-users.sh":   "echo users\n",
		"05-disk.conf":  "[disk]\nscheduler = bfq\n",
		"README.md":     "not a module\n",
	})
}

func names(modules []Module) []string {
	var list []string
	for _, module := range modules {
		list = append(list, module.Name)
	}
	return list
}

func TestScan(t *testing.T) {
	dir := standardModules(t)
	modules, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"05-disk.conf", "10-network.sh", "20-users.sh"}
	if diff := cmp.Diff(expected, names(modules)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if modules[0].Kind != proto.ModuleKindDeclarative {
		t.Errorf("%s: kind: %s", modules[0].Name, modules[0].Kind)
	}
	expectedSettings := map[string]Section{"disk": {"scheduler": "bfq"}}
	if diff := cmp.Diff(expectedSettings, modules[0].Settings); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
	for _, module := range modules[1:] {
		if module.Kind != proto.ModuleKindExecutable {
			t.Errorf("%s: kind: %s", module.Name, module.Kind)
		}
	}
}

func TestSortKeyOverride(t *testing.T) {
	dir := writeModules(t, map[string]string{
		"network.sh":    "#!/bin/sh\n# sort-key: 10\necho network\n",
		"users.sh":      "#!/bin/sh\n# sort-key: 20\necho users\n",
		"disk.conf":     "[module]\nsort-key = 05\n",
		"aaa-last.conf": "[module]\nsort-key = 99\n",
	})
	modules, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"disk.conf", "network.sh", "users.sh", "aaa-last.conf"}
	if diff := cmp.Diff(expected, names(modules)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestScanMalformedDeclarativeModule(t *testing.T) {
	dir := writeModules(t, map[string]string{"05-disk.conf": "[disk\n"})
	if _, err := Scan(dir); err == nil {
		t.Error("malformed module accepted")
	}
}

func TestRunOrder(t *testing.T) {
	dir := standardModules(t)
	modules, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	h := fakehost.New()
	r := &Runner{Host: h, Logger: testlogger.New(t)}
	results, err := r.Run(modules, "/mnt/stormos")
	if err != nil {
		t.Fatal(err)
	}
	expectedCalls := []string{
		"run /bin/sh -e " + filepath.Join(dir, "10-network.sh"),
		"run /bin/sh -e " + filepath.Join(dir, "20-users.sh"),
	}
	if diff := cmp.Diff(expectedCalls, h.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	expectedResults := []proto.ModuleResult{
		{Name: "05-disk.conf", Kind: proto.ModuleKindDeclarative},
		{Name: "10-network.sh", Kind: proto.ModuleKindExecutable, Ran: true},
		{Name: "20-users.sh", Kind: proto.ModuleKindExecutable, Ran: true},
	}
	if diff := cmp.Diff(expectedResults, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	if scheduler := r.Settings()["disk"]["scheduler"]; scheduler != "bfq" {
		t.Errorf("retained setting: %q != bfq", scheduler)
	}
}

func TestScanDeclarativeSyntax(t *testing.T) {
	dir := writeModules(t, map[string]string{
		"30-display.conf": "; display settings\nglobal = 1\n" +
			"[display]\n# comment\ndesktop = \"XFCE\"\ntheme=dark\n",
	})
	modules, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	expected := map[string]Section{
		"":        {"global": "1"},
		"display": {"desktop": "XFCE", "theme": "dark"},
	}
	if diff := cmp.Diff(expected, modules[0].Settings); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeBeforeRun(t *testing.T) {
	modules, err := Scan(standardModules(t))
	if err != nil {
		t.Fatal(err)
	}
	h := fakehost.New()
	r := &Runner{Host: h, Logger: testlogger.New(t)}
	r.Merge(modules)
	if len(h.Calls()) > 0 {
		t.Errorf("merge ran modules: %v", h.Calls())
	}
	if scheduler := r.Settings()["disk"]["scheduler"]; scheduler != "bfq" {
		t.Errorf("merged setting: %q != bfq", scheduler)
	}
	if _, err := r.Run(modules, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	expected := map[string]Section{"disk": {"scheduler": "bfq"}}
	if diff := cmp.Diff(expected, r.Settings()); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestFailFast(t *testing.T) {
	dir := standardModules(t)
	modules, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	h := fakehost.New()
	network := filepath.Join(dir, "10-network.sh")
	h.Fail("run /bin/sh -e "+network, &fakehost.ExitError{Status: 2})
	r := &Runner{Host: h, Logger: testlogger.New(t)}
	results, err := r.Run(modules, "/mnt/stormos")
	var moduleError *Error
	if !errors.As(err, &moduleError) {
		t.Fatalf("not a module error: %v", err)
	}
	if moduleError.Module != "10-network.sh" || moduleError.ExitStatus != 2 {
		t.Errorf("error: %s", moduleError)
	}
	for _, call := range h.Calls() {
		if strings.Contains(call, "20-users.sh") {
			t.Error("module run after failure")
		}
	}
	if len(results) != 2 {
		t.Fatalf("%d results, expected 2", len(results))
	}
	if results[1].ExitStatus != 2 || results[1].Error == "" {
		t.Errorf("failure not recorded: %+v", results[1])
	}
}

func TestContinueOnError(t *testing.T) {
	dir := standardModules(t)
	modules, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	h := fakehost.New()
	network := filepath.Join(dir, "10-network.sh")
	h.Fail("run /bin/sh -e "+network, &fakehost.ExitError{Status: 1})
	r := &Runner{Host: h, Logger: testlogger.New(t), ContinueOnError: true}
	results, err := r.Run(modules, "/mnt/stormos")
	if err == nil {
		t.Error("failure not reported")
	}
	if len(results) != 3 || !results[2].Ran {
		t.Errorf("remaining modules not run: %+v", results)
	}
}

func TestNonExecutableModuleSkipped(t *testing.T) {
	dir := standardModules(t)
	if err := os.Chmod(filepath.Join(dir, "20-users.sh"), 0644); err != nil {
		t.Fatal(err)
	}
	modules, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	h := fakehost.New()
	r := &Runner{Host: h, Logger: testlogger.New(t)}
	results, err := r.Run(modules, "/mnt/stormos")
	if err != nil {
		t.Fatal(err)
	}
	if !results[2].Skipped || results[2].Ran {
		t.Errorf("non-executable module: %+v", results[2])
	}
	if calls := h.Calls(); len(calls) != 1 {
		t.Errorf("calls: %v", calls)
	}
}

func TestRunScriptsOnHost(t *testing.T) {
	dir := writeModules(t, map[string]string{
		"10-network.sh": "echo configured > \"$STORMOS_TARGET/network\"\n",
		"20-users.sh":   "false\necho unreachable > users\n",
		"30-final.sh":   "touch final\n",
	})
	modules, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	stagingRoot := t.TempDir()
	logger := testlogger.New(t)
	r := &Runner{Host: host.New(false, logger), Logger: logger}
	_, err = r.Run(modules, stagingRoot)
	var moduleError *Error
	if !errors.As(err, &moduleError) {
		t.Fatalf("not a module error: %v", err)
	}
	if moduleError.Module != "20-users.sh" || moduleError.ExitStatus != 1 {
		t.Errorf("error: %s", moduleError)
	}
	data, err := os.ReadFile(filepath.Join(stagingRoot, "network"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "configured\n" {
		t.Errorf("network: %q", data)
	}
	// "sh -e" stops at the failing command.
	if _, err := os.Stat(filepath.Join(stagingRoot, "users")); err == nil {
		t.Error("script continued after failing command")
	}
	if _, err := os.Stat(filepath.Join(stagingRoot, "final")); err == nil {
		t.Error("module run after failure")
	}
}
