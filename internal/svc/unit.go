package svc

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
)

// UnitConfig carries everything the unit templates need. Values flow from
// the resolved installation, never from raw user-supplied format strings.
type UnitConfig struct {
	// User is the service account the bridge runs as.
	User string
	// InstallDir is the bridge installation directory (working directory).
	InstallDir string
	// VenvDir is the Python virtual environment holding flask/gunicorn.
	VenvDir string
	// AppEnvFile is the env file inside the install dir (overwritten on update).
	AppEnvFile string
	// UserEnvFile is the user-editable settings env file (survives updates).
	UserEnvFile string
	// ListenIP and ListenPort are the web UI listen address.
	ListenIP   string
	ListenPort int
	// UseGunicorn selects the production WSGI server over the flask dev server.
	UseGunicorn bool
}

const (
	systemdUnitTemplate = `[Unit]
Description=wyze-bridge daemon
After=network.target

[Service]
User={{.User}}
Group={{.User}}
WorkingDirectory={{.WorkingDirectory}}
EnvironmentFile={{.AppEnvFile}}
EnvironmentFile={{.UserEnvFile}}
ExecStart={{.Command}}
KillMode=mixed
TimeoutStopSec=5
PrivateTmp=true
Restart=always

[Install]
WantedBy=multi-user.target
`

	openrcUnitTemplate = `#!/sbin/openrc-run

description="wyze-bridge daemon"

command="{{.Command}}"
command_args="{{.CommandArgs}}"
command_user="{{.User}}"
command_background="yes"
output_log="{{.LogFile}}"

depend() {
    need net
}

start_pre() {
    ebegin "Setting up environment"
    if [ -f {{.AppEnvFile}} ]; then
        export $(grep -v '^#' {{.AppEnvFile}} | xargs)
    fi
    if [ -f {{.UserEnvFile}} ]; then
        export $(grep -v '^#' {{.UserEnvFile}} | xargs)
    fi
}

start() {
    ebegin "Starting wyze-bridge"
    start-stop-daemon -S -d {{.WorkingDirectory}} -x $command -- $command_args >> $output_log 2>&1 &
    eend $?
}

stop() {
    ebegin "Stopping wyze-bridge"
    start-stop-daemon --stop --retry 3 --name {{.AppName}}
    eend $?
}
`
)

var (
	systemdUnitTmpl = template.Must(template.New("systemdUnit").Parse(systemdUnitTemplate))
	openrcUnitTmpl  = template.Must(template.New("openrcUnit").Parse(openrcUnitTemplate))
)

// systemdUnitData populates systemdUnitTemplate.
type systemdUnitData struct {
	User             string
	WorkingDirectory string
	AppEnvFile       string
	UserEnvFile      string
	Command          string
}

// openrcUnitData populates openrcUnitTemplate.
type openrcUnitData struct {
	User             string
	WorkingDirectory string
	AppEnvFile       string
	UserEnvFile      string
	Command          string
	CommandArgs      string
	AppName          string
	LogFile          string
}

const (
	systemdUnitPermissions os.FileMode = 0o644
	openrcUnitPermissions  os.FileMode = 0o755

	openrcLogFile = "/var/log/wyze-bridge.log"
)

// WriteUnit renders the unit definition for the detected manager at its
// fixed path. Registration is a separate, later step: a failure between
// the two leaves an inert unit file behind, never a started service.
func (m Manager) WriteUnit(ctx context.Context, cfg *UnitConfig) error {
	contents, err := m.renderUnit(cfg)
	if err != nil {
		return err
	}

	mode := systemdUnitPermissions
	if m == OpenRC {
		mode = openrcUnitPermissions
	}

	path := m.UnitPath()
	if err = os.WriteFile(path, []byte(contents), mode); err != nil {
		return fmt.Errorf("write unit file %s: %w (%w)", path, err, errdefs.ErrFilesystem)
	}

	logger.InfoKV(ctx, "Service definition written", "manager", string(m), "path", path)

	return nil
}

// renderUnit produces the unit file text for this manager.
func (m Manager) renderUnit(cfg *UnitConfig) (string, error) {
	var (
		buf strings.Builder
		err error
	)

	switch m {
	case OpenRC:
		command, args, appName := cfg.openrcCommand()
		err = openrcUnitTmpl.Execute(&buf, &openrcUnitData{
			User:             cfg.User,
			WorkingDirectory: cfg.InstallDir,
			AppEnvFile:       cfg.AppEnvFile,
			UserEnvFile:      cfg.UserEnvFile,
			Command:          command,
			CommandArgs:      args,
			AppName:          appName,
			LogFile:          openrcLogFile,
		})
	default:
		err = systemdUnitTmpl.Execute(&buf, &systemdUnitData{
			User:             cfg.User,
			WorkingDirectory: cfg.InstallDir,
			AppEnvFile:       cfg.AppEnvFile,
			UserEnvFile:      cfg.UserEnvFile,
			Command:          cfg.systemdCommand(),
		})
	}

	if err != nil {
		return "", fmt.Errorf("render %s unit: %w", m, err)
	}

	return buf.String(), nil
}

// systemdCommand builds the ExecStart line: either the production WSGI
// server with a fixed single worker/thread, or the built-in dev server.
func (cfg *UnitConfig) systemdCommand() string {
	listen := cfg.ListenIP + ":" + strconv.Itoa(cfg.ListenPort)

	if cfg.UseGunicorn {
		return cfg.VenvDir + "/bin/gunicorn --bind=" + listen +
			" --workers=1 --threads=1 'frontend:create_app()'"
	}

	return cfg.VenvDir + "/bin/flask --app frontend run --host " + cfg.ListenIP +
		" --port " + strconv.Itoa(cfg.ListenPort)
}

// openrcCommand splits the start invocation the way start-stop-daemon
// expects: executable, arguments and the process name used for stop.
func (cfg *UnitConfig) openrcCommand() (command, args, appName string) {
	listen := cfg.ListenIP + ":" + strconv.Itoa(cfg.ListenPort)

	if cfg.UseGunicorn {
		return cfg.VenvDir + "/bin/gunicorn",
			"--bind=" + listen + " --workers=1 --threads=1 -u " + cfg.User +
				" -g " + cfg.User + " frontend:create_app()",
			"gunicorn"
	}

	return cfg.VenvDir + "/bin/flask",
		"--app frontend run --host " + cfg.ListenIP + " --port " + strconv.Itoa(cfg.ListenPort),
		"flask"
}
