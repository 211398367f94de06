package device

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	docker "github.com/fsouza/go-dockerclient"

	"github.com/topolab-net/topolab/pkg/util"
)

// saveCommands maps device kinds to the vendor command that prints the
// running configuration. Kinds without an entry have nothing to save.
var saveCommands = map[Kind][]string{
	KindCEOS: {"Cli", "-p", "15", "-c", "show running-config"},
}

// Exec runs a command inside the running container and returns its
// combined output.
func (d *Device) Exec(cmd []string) (string, error) {
	c, err := d.Resolve()
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", fmt.Errorf("device %s: exec: %w", d.name, util.ErrNotFound)
	}
	if !c.State.Running {
		return "", fmt.Errorf("device %s: exec: container not running", d.name)
	}

	exec, err := d.client.CreateExec(docker.CreateExecOptions{
		Container:    c.ID,
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", fmt.Errorf("device %s: create exec: %w", d.name, err)
	}

	var buf bytes.Buffer
	err = d.client.StartExec(exec.ID, docker.StartExecOptions{
		OutputStream: &buf,
		ErrorStream:  &buf,
	})
	if err != nil {
		return "", fmt.Errorf("device %s: exec %v: %w", d.name, cmd, err)
	}
	return buf.String(), nil
}

// SaveConfig fetches the device's running configuration via its vendor
// command and writes it to <confDir>/<device-name>. Kinds with no save
// command are skipped with a log line, not an error.
func (d *Device) SaveConfig(confDir string) error {
	cmd, ok := saveCommands[d.kind]
	if !ok {
		util.WithDevice(d.name).Debugf("no config save for %s devices", d.kind)
		return nil
	}

	output, err := d.Exec(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(confDir, 0755); err != nil {
		return fmt.Errorf("device %s: create config dir: %w", d.name, err)
	}
	path := filepath.Join(confDir, d.name)
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return fmt.Errorf("device %s: write config: %w", d.name, err)
	}
	util.WithDevice(d.name).Infof("saved config to %s", path)
	return nil
}
