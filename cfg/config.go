package cfg

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/alonsoveliz1/layton/printer"
)

func init() {
	initCfgDir()
	initConfig()
}

// Config can be set in 2 ways:
//
//  1. Via YAML config file under $HOME/.layton/config.yaml. For example:
//
//     ```yaml
//     interface: eth0
//     bpf_filter: tcp
//     model_dir: /opt/layton/models
//     attack_threshold: 0.85
//     ```
//
//  2. Via environment variables prefixed LAYTON_, e.g. LAYTON_MODEL_DIR.
//
// Of these keys only model_dir is read by the pipeline. The interface is
// taken from the command line or the HTTP request, and the BPF filter,
// attack threshold and queue sizes are fixed in capture, classifier and
// engine; the accessors below return the configured values only.
var settings = viper.New()

const configFileName = "config"

func initConfig() {
	settings.SetConfigType("yaml")
	settings.AddConfigPath(cfgDir)
	settings.SetConfigName(configFileName)

	settings.SetEnvPrefix("layton")
	settings.AutomaticEnv()

	settings.SetDefault("bpf_filter", "tcp")
	settings.SetDefault("attack_threshold", 0.85)
	settings.SetDefault("capture_queue_size", 256)
	settings.SetDefault("classify_queue_size", 256)

	if err := settings.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file is fine; flags and env vars can fully configure
			// a run.
		} else {
			printer.Stderr.Errorf("Failed to read config: %v\n", err)
			os.Exit(2)
		}
	}
}

// GetConfigPath returns the path to $HOME/.layton/config.yaml.
func GetConfigPath() string {
	return filepath.Join(cfgDir, configFileName+".yaml")
}

// ModelDir returns the directory models and class_map.json are resolved
// from, defaulting to $HOME/.layton/classifier-models.
func ModelDir() string {
	if v := settings.GetString("model_dir"); v != "" {
		return v
	}
	return filepath.Join(cfgDir, "classifier-models")
}

// BPFFilter returns the configured bpf_filter, defaulting to "tcp".
// Capture applies its own fixed "tcp" filter and does not read it.
func BPFFilter() string {
	return settings.GetString("bpf_filter")
}

// AttackThreshold returns the configured attack_threshold, defaulting to
// 0.85. The classifier decides with its AttackThreshold constant and
// does not read this value.
func AttackThreshold() float64 {
	return settings.GetFloat64("attack_threshold")
}

// CaptureQueueSize returns the configured capture_queue_size, defaulting
// to 256. The capture->engine channel has a fixed buffer of 256 and does
// not read it.
func CaptureQueueSize() int {
	return settings.GetInt("capture_queue_size")
}

// ClassifyQueueSize returns the configured classify_queue_size,
// defaulting to 256. The engine->classifier channel has a fixed buffer of
// 256 and does not read it.
func ClassifyQueueSize() int {
	return settings.GetInt("classify_queue_size")
}

// WriteModelDir persists a model directory override to the config file,
// creating the file if it doesn't already exist.
func WriteModelDir(dir string) error {
	path := GetConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL, 0600)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", path)
		}
		f.Close()
	} else if err != nil {
		return errors.Wrapf(err, "failed to stat %s", path)
	}

	settings.Set("model_dir", dir)
	return settings.WriteConfig()
}
