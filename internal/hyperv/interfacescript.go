// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package hyperv

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kuttiproject/workspace"
)

// envelope is the JSON document every interface script verb prints.
type envelope struct {
	Success      bool
	ErrorMessage string
	Payload      map[string]json.RawMessage
}

const scriptVersion = "0.1"

var scriptName = "clusterreport-" + scriptVersion + ".ps1"

//go:embed assets/clusterreport.ps1
var script string

func findPowerShell() (string, error) {
	// First, try looking up Windows PowerShell on the path
	toolpath, err := exec.LookPath("powershell.exe")
	if err == nil {
		return toolpath, nil
	}

	// If not, look for cross-platform PowerShell
	toolpath, err = exec.LookPath("pwsh.exe")
	if err == nil {
		return toolpath, nil
	}

	return "", errors.New("PowerShell not found")
}

func cacheDir() (string, error) {
	return workspace.CacheSubDir("vmstor")
}

// findScript returns the path of the cached interface script, writing the
// embedded copy on first use. The file name carries the script version, so a
// new release never runs a stale cached script.
func findScript() (string, error) {
	scriptdir, err := cacheDir()
	if err != nil {
		return "", fmt.Errorf("could not find interface script: %w", err)
	}

	scriptpath := filepath.Join(scriptdir, scriptName)
	if _, err := os.Stat(scriptpath); err != nil {
		if err := writeScript(scriptpath); err != nil {
			return "", err
		}
	}

	return scriptpath, nil
}

func writeScript(scriptpath string) error {
	scriptFile, err := os.Create(scriptpath)
	if err != nil {
		return err
	}

	defer scriptFile.Close()

	_, err = scriptFile.WriteString(script)
	return err
}

// runner executes the interface script with the given verb and arguments and
// returns its raw standard output.
type runner func(args ...string) (string, error)

// powershellRunner invokes the cached script through PowerShell with the
// flags that keep the session quiet and non-blocking.
func powershellRunner(powershellpath, scriptpath string) runner {
	return func(args ...string) (string, error) {
		powershellargs := []string{
			"-NoProfile",
			"-NonInteractive",
			"-File",
			scriptpath,
		}
		powershellargs = append(powershellargs, args...)
		return workspace.RunWithResults(powershellpath, powershellargs...)
	}
}

func (c *Client) runWithResults(args ...string) (*envelope, error) {
	resultstring, err := c.run(args...)
	if err != nil {
		return nil, err
	}

	env := &envelope{}
	if err := json.Unmarshal([]byte(resultstring), env); err != nil {
		return nil, fmt.Errorf("decoding interface script output: %w", err)
	}

	if !env.Success {
		if env.ErrorMessage == "" {
			return nil, errors.New("interface script reported failure")
		}
		return nil, errors.New(env.ErrorMessage)
	}
	return env, nil
}

// payloadValue decodes one key of the envelope payload into the given value.
func payloadValue(env *envelope, key string, into any) error {
	raw, ok := env.Payload[key]
	if !ok {
		return fmt.Errorf("interface script payload is missing %s", key)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decoding payload %s: %w", key, err)
	}
	return nil
}
