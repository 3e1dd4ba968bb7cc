package config

import "strconv"

// Field describes one configuration key: its flag name, its operator-facing
// description and typed accessors. The registry below is the single source
// for CLI flag registration and for show-settings output, so the two can
// never drift apart.
type Field struct {
	// Name is the flag and settings-file key, e.g. "APP_PORT".
	Name string
	// Description is shown in flag help and show-settings output.
	Description string
	// Get renders the current value as a string.
	Get func(cfg *Config) string
	// Set applies a flag value, converting to the field's type.
	Set func(cfg *Config, value string) error
}

// Fields returns the declared configuration keys in display order.
func Fields() []Field {
	return []Field{
		{
			Name:        "APP_CONF",
			Description: "Path to env file containing docker-wyze-bridge settings.",
			Get:         func(cfg *Config) string { return cfg.AppConf },
			Set: func(cfg *Config, value string) error {
				cfg.AppConf = value
				return nil
			},
		},
		{
			Name:        "APP_GUNICORN",
			Description: "Use Gunicorn for frontend service.",
			Get:         func(cfg *Config) string { return formatBool(cfg.AppGunicorn) },
			Set: func(cfg *Config, value string) error {
				parsed, err := ParseBool(value)
				if err != nil {
					return err
				}

				cfg.AppGunicorn = parsed

				return nil
			},
		},
		{
			Name:        "APP_IP",
			Description: "IP address on which docker-wyze-bridge will listen.",
			Get:         func(cfg *Config) string { return cfg.AppIP },
			Set: func(cfg *Config, value string) error {
				cfg.AppIP = value
				return nil
			},
		},
		{
			Name:        "APP_PATH",
			Description: "Location of docker-wyze-bridge application.",
			Get:         func(cfg *Config) string { return cfg.AppPath },
			Set: func(cfg *Config, value string) error {
				cfg.AppPath = value
				return nil
			},
		},
		{
			Name:        "APP_PORT",
			Description: "Port on which docker-wyze-bridge will listen.",
			Get:         func(cfg *Config) string { return formatInt(cfg.AppPort) },
			Set: func(cfg *Config, value string) error {
				port, err := parsePort(value)
				if err != nil {
					return err
				}

				cfg.AppPort = port

				return nil
			},
		},
		{
			Name:        "APP_USER",
			Description: "User account used to run the docker-wyze-bridge.",
			Get:         func(cfg *Config) string { return cfg.AppUser },
			Set: func(cfg *Config, value string) error {
				cfg.AppUser = value
				return nil
			},
		},
		{
			Name:        "APP_VERSION",
			Description: "Version of docker-wyze-bridge to install.",
			Get:         func(cfg *Config) string { return cfg.AppVersion },
			Set: func(cfg *Config, value string) error {
				cfg.AppVersion = value
				return nil
			},
		},
		{
			Name:        "MEDIA_MTX_VERSION",
			Description: "Version of mediamtx to install.",
			Get:         func(cfg *Config) string { return cfg.MediaMTXVersion },
			Set: func(cfg *Config, value string) error {
				cfg.MediaMTXVersion = value
				return nil
			},
		},
		{
			Name:        "MEDIA_MTX_PATH",
			Description: "Location of mediamtx application.",
			Get:         func(cfg *Config) string { return cfg.MediaMTXPath },
			Set: func(cfg *Config, value string) error {
				cfg.MediaMTXPath = value
				return nil
			},
		},
		{
			Name:        "INSTALLATION_CONF",
			Description: "Path to file containing settings of this script, used for updates.",
			Get:         func(cfg *Config) string { return cfg.SettingsPath },
			Set: func(cfg *Config, value string) error {
				cfg.SettingsPath = value
				return nil
			},
		},
	}
}

func formatBool(v bool) string {
	return strconv.FormatBool(v)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}
