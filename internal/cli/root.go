package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/candidstance/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

// keyDelimiter keeps dotted map keys such as credibility domains intact
const keyDelimiter = "::"

var (
	cfgFile string
	verbose bool

	settings = newViper()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "candidstance",
	Short: "CandidStance - Political candidate stances backed by scored sources",
	Long: `CandidStance summarizes a political candidate's positions issue by issue
and backs each summary with web sources ranked by a transparent
credibility score.

Stances are generated by a language model and never cite anything the
source verifier did not find and score. Analyses are cached for 30 days.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "candidstance %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.candidstance/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	_ = settings.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := configureViper(settings, cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		os.Exit(1)
	}
	if verbose && settings.ConfigFileUsed() != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", settings.ConfigFileUsed())
	}
}

func newViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
}

// configureViper registers defaults, environment bindings and the config file
func configureViper(v *viper.Viper, file string) error {
	setDefaults(v, "", reflect.ValueOf(model.DefaultConfig()))

	// CANDIDSTANCE_LLM_API_KEY -> llm::api_key
	v.SetEnvPrefix("CANDIDSTANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("search"+keyDelimiter+"api_key", "CANDIDSTANCE_SEARCH_API_KEY", "RAPIDAPI_KEY")
	_ = v.BindEnv("store"+keyDelimiter+"uri", "CANDIDSTANCE_STORE_URI", "MONGODB_URI")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(filepath.Join(home, ".candidstance"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// loadConfig resolves the effective configuration
func loadConfig(v *viper.Viper) (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	resolveProviderEnv(&cfg)

	if v.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}

	return cfg, nil
}

// resolveProviderEnv fills provider credentials from each vendor's own variable
func resolveProviderEnv(cfg *model.Config) {
	if cfg.LLM.APIKey == "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "gemini", "google":
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if cfg.LLM.BaseURL == "" && strings.EqualFold(cfg.LLM.Provider, "ollama") {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
}

// setDefaults registers every leaf of the default config so environment
// variables can override keys absent from the config file.
func setDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + keyDelimiter + key
		}

		fv := val.Field(i)
		if fv.Kind() == reflect.Map && fv.IsNil() {
			continue
		}
		if fv.Kind() == reflect.Struct {
			setDefaults(v, key, fv)
			continue
		}
		v.SetDefault(key, fv.Interface())
	}
}
