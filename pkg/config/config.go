// Package config holds the explicit service configuration. Values are layered:
// Defaults, then an optional YAML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fastlay-project/fastlay/pkg/env"
	"github.com/fastlay-project/fastlay/pkg/log"
)

// EnvConfigFile names the YAML file read by Load when no path is given.
const EnvConfigFile = "FASTLAY_CONFIG"

type Config struct {
	// Directory holding one sub-directory per preset.
	PresetsDir string `yaml:"presets_dir"`
	// Directory of *.ttf files, looked up by family name.
	FontsDir string `yaml:"fonts_dir"`
	// Optional marcas.json with the protected brand phrases.
	BrandsFile string `yaml:"brands_file"`
	// Where layoutctl writes layouts.
	OutputDir string `yaml:"output_dir"`
	// Grid specs may reference images inside this directory.
	GridAssetsDir string `yaml:"grid_assets_dir"`

	Server  Server  `yaml:"server"`
	Images  Images  `yaml:"images"`
	FTP     FTP     `yaml:"ftp"`
	GCS     GCS     `yaml:"gcs"`
	Drive   Drive   `yaml:"drive"`
	DB      DB      `yaml:"db"`
	Logging Logging `yaml:"logging"`

	GCPProjectID string `yaml:"gcp_project_id"`
	// Delay between retries of external calls.
	BackoffInterval time.Duration `yaml:"backoff_interval"`
	MaxRetries      int           `yaml:"max_retries"`
}

type Server struct {
	GRPCPort int `yaml:"grpc_port"`
	WebPort  int `yaml:"web_port"`
	// Origin allowed to call the gRPC-web endpoint.
	UIOrigin  string `yaml:"ui_origin"`
	StaticDir string `yaml:"static_dir"`
	// Bearer token required on RPCs. Empty disables the check.
	APIToken string `yaml:"api_token"`
}

// Images orders the product photo sources. Known names are ftp, gcs, drive and local.
type Images struct {
	Sources  []string `yaml:"sources"`
	LocalDir string   `yaml:"local_dir"`
}

type FTP struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// Secret Manager secret holding the password when Password is empty.
	PasswordSecret string        `yaml:"password_secret"`
	ProductsDir    string        `yaml:"products_dir"`
	ManualDir      string        `yaml:"manual_dir"`
	Timeout        time.Duration `yaml:"timeout"`
}

type GCS struct {
	ImageBucket string `yaml:"image_bucket"`
	ImagePrefix string `yaml:"image_prefix"`
	// Bucket successful layouts are archived to. Empty disables the archive.
	LayoutBucket string `yaml:"layout_bucket"`
}

type Drive struct {
	CredentialsFile string `yaml:"credentials_file"`
	FolderID        string `yaml:"folder_id"`
}

type DB struct {
	// postgres or sqlite. Empty disables the request log and product search.
	Driver         string `yaml:"driver"`
	URL            string `yaml:"url"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	PasswordSecret string `yaml:"password_secret"`
	Name           string `yaml:"name"`
	SSLMode        string `yaml:"sslmode"`
	SQLitePath     string `yaml:"sqlite_path"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

func Defaults() Config {
	return Config{
		PresetsDir:    "presets",
		FontsDir:      "fonts",
		BrandsFile:    "marcas.json",
		OutputDir:     "layouts",
		GridAssetsDir: "grid",
		Server: Server{
			GRPCPort: 50051,
			WebPort:  8080,
		},
		Images: Images{
			Sources: []string{"ftp"},
		},
		FTP: FTP{
			ProductsDir: "/products",
			ManualDir:   "/temp/nobg_images",
			Timeout:     30 * time.Second,
		},
		DB: DB{
			Host:       "localhost",
			Port:       5432,
			Name:       "layout_requests_db",
			SSLMode:    "disable",
			SQLitePath: "fastlay.sqlite",
		},
		Logging:         Logging{Level: "info", Format: "console"},
		BackoffInterval: time.Second / 2,
		MaxRetries:      3,
	}
}

// Load reads the YAML file at path (or $FASTLAY_CONFIG) over the defaults and applies
// environment overrides. A missing file is not an error when the path came from nowhere.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigFile)
		explicit = path != ""
	}
	if explicit {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the environment variables that are set.
func ApplyEnv(cfg *Config) {
	cfg.PresetsDir = env.StringVariable("PRESETS_DIR", cfg.PresetsDir)
	cfg.FontsDir = env.StringVariable("FONTS_DIR", cfg.FontsDir)
	cfg.BrandsFile = env.StringVariable("BRANDS_FILE", cfg.BrandsFile)
	cfg.OutputDir = env.StringVariable("OUTPUT_DIR", cfg.OutputDir)
	cfg.GridAssetsDir = env.StringVariable("GRID_ASSETS_DIR", cfg.GridAssetsDir)

	cfg.Server.GRPCPort = env.IntVariable("GRPC_PORT", cfg.Server.GRPCPort)
	cfg.Server.WebPort = env.IntVariable("WEB_PORT", cfg.Server.WebPort)
	cfg.Server.UIOrigin = env.StringVariable("FASTLAY_UI_URL", cfg.Server.UIOrigin)
	cfg.Server.StaticDir = env.StringVariable("FASTLAY_STATIC_FILE_DIR", cfg.Server.StaticDir)
	cfg.Server.APIToken = env.StringVariable("API_TOKEN", cfg.Server.APIToken)

	if sources := os.Getenv("IMAGE_SOURCES"); sources != "" {
		cfg.Images.Sources = splitList(sources)
	}
	cfg.Images.LocalDir = env.StringVariable("LOCAL_IMAGES_DIR", cfg.Images.LocalDir)

	cfg.FTP.Host = env.StringVariable("FTP_HOST", cfg.FTP.Host)
	cfg.FTP.User = env.StringVariable("FTP_USER", cfg.FTP.User)
	cfg.FTP.Password = env.StringVariable("FTP_PASSWORD", cfg.FTP.Password)
	cfg.FTP.PasswordSecret = env.StringVariable("FTP_PASSWORD_SECRET_NAME", cfg.FTP.PasswordSecret)
	cfg.FTP.ProductsDir = env.StringVariable("FTP_PRODUCTS_DIR", cfg.FTP.ProductsDir)
	cfg.FTP.ManualDir = env.StringVariable("FTP_MANUAL_DIR", cfg.FTP.ManualDir)
	cfg.FTP.Timeout = env.DurationVariable("FTP_TIMEOUT", cfg.FTP.Timeout)

	cfg.GCS.ImageBucket = env.StringVariable("GCS_IMAGE_BUCKET", cfg.GCS.ImageBucket)
	cfg.GCS.ImagePrefix = env.StringVariable("GCS_IMAGE_PREFIX", cfg.GCS.ImagePrefix)
	cfg.GCS.LayoutBucket = env.StringVariable("GCS_LAYOUT_BUCKET", cfg.GCS.LayoutBucket)

	cfg.Drive.CredentialsFile = env.StringVariable("DRIVE_CREDENTIALS_FILE", cfg.Drive.CredentialsFile)
	cfg.Drive.FolderID = env.StringVariable("DRIVE_FOLDER_ID", cfg.Drive.FolderID)

	cfg.DB.Driver = env.StringVariable("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.URL = env.StringVariable("DATABASE_URL", cfg.DB.URL)
	cfg.DB.Host = env.StringVariable("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = env.IntVariable("DB_PORT", cfg.DB.Port)
	cfg.DB.User = env.StringVariable("DB_USER", cfg.DB.User)
	cfg.DB.Password = env.StringVariable("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.PasswordSecret = env.StringVariable("DB_PASSWORD_SECRET_NAME", cfg.DB.PasswordSecret)
	cfg.DB.Name = env.StringVariable("DB_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = env.StringVariable("DB_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.SQLitePath = env.StringVariable("SQLITE_PATH", cfg.DB.SQLitePath)

	cfg.Logging.Level = env.StringVariable("FASTLAY_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = env.StringVariable("FASTLAY_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Source = env.BoolVariable("FASTLAY_LOG_SOURCE", cfg.Logging.Source)
	cfg.Logging.File = env.StringVariable("FASTLAY_LOG_FILE", cfg.Logging.File)

	cfg.GCPProjectID = env.StringVariable("GCP_PROJECT_ID", cfg.GCPProjectID)
	cfg.BackoffInterval = env.DurationVariable("BACKOFF_INTERVAL", cfg.BackoffInterval)
	cfg.MaxRetries = env.IntVariable("MAX_RETRIES", cfg.MaxRetries)
}

var ErrInvalidConfig = errors.New("invalid config")

func (c Config) Validate() error {
	var errs []error
	if c.PresetsDir == "" {
		errs = append(errs, errors.New("presets_dir is required"))
	}
	if c.FontsDir == "" {
		errs = append(errs, errors.New("fonts_dir is required"))
	}
	for _, source := range c.Images.Sources {
		switch source {
		case "ftp":
			if c.FTP.Host == "" {
				errs = append(errs, errors.New("ftp image source needs ftp.host"))
			}
		case "gcs":
			if c.GCS.ImageBucket == "" {
				errs = append(errs, errors.New("gcs image source needs gcs.image_bucket"))
			}
		case "drive":
			if c.Drive.FolderID == "" {
				errs = append(errs, errors.New("drive image source needs drive.folder_id"))
			}
		case "local":
			if c.Images.LocalDir == "" {
				errs = append(errs, errors.New("local image source needs images.local_dir"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown image source %q", source))
		}
	}
	switch c.DB.Driver {
	case "", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown db driver %q", c.DB.Driver))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max_retries must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// DSN returns the data source name for database/sql with the configured driver.
func (d DB) DSN() string {
	if d.Driver == "sqlite" {
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", d.SQLitePath)
	}
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// SQLDriver returns the database/sql driver name registered by the driver packages.
func (d DB) SQLDriver() string {
	if d.Driver == "sqlite" {
		return "sqlite"
	}
	return "pgx"
}

func (l Logging) Options() log.Options {
	return log.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
