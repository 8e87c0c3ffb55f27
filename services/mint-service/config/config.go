package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Pinata   PinataConfig   `mapstructure:"pinata"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	MetricsPort     string        `mapstructure:"metrics_port"`
	WorkflowTimeout time.Duration `mapstructure:"workflow_timeout"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type BackendConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	PromptConfigURL string        `mapstructure:"prompt_config_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ProcessTimeout  time.Duration `mapstructure:"process_timeout"`
}

type PinataConfig struct {
	APIURL     string `mapstructure:"api_url"`
	GatewayURL string `mapstructure:"gateway_url"`
	APIKey     string `mapstructure:"api_key"`
	SecretKey  string `mapstructure:"secret_key"`
	JWT        string `mapstructure:"jwt"`
	CacheSize  int    `mapstructure:"cache_size"`
}

type ChainConfig struct {
	ChainID        uint64        `mapstructure:"chain_id"`
	RPCURL         string        `mapstructure:"rpc_url"`
	RPCURLs        string        `mapstructure:"rpc_urls"`
	Contract       string        `mapstructure:"contract"`
	PrivateKey     string        `mapstructure:"private_key"`
	ReceiptTimeout time.Duration `mapstructure:"receipt_timeout"`
	SwitchSettle   time.Duration `mapstructure:"switch_settle"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket"`
}

type SessionConfig struct {
	TokenFile string `mapstructure:"token_file"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var envKeys = map[string]string{
	"server.port":               "SERVER_PORT",
	"server.metrics_port":       "METRICS_PORT",
	"server.workflow_timeout":   "WORKFLOW_TIMEOUT",
	"database.driver":           "DB_DRIVER",
	"database.path":             "DB_PATH",
	"database.host":             "DB_HOST",
	"database.port":             "DB_PORT",
	"database.user":             "DB_USER",
	"database.password":         "DB_PASSWORD",
	"database.dbname":           "DB_NAME",
	"database.sslmode":          "DB_SSLMODE",
	"backend.base_url":          "BACKEND_BASE_URL",
	"backend.prompt_config_url": "PROMPT_CONFIG_URL",
	"backend.timeout":           "BACKEND_TIMEOUT",
	"backend.process_timeout":   "PROCESS_TIMEOUT",
	"pinata.api_url":            "PINATA_API_URL",
	"pinata.gateway_url":        "PINATA_GATEWAY_URL",
	"pinata.api_key":            "PINATA_API_KEY",
	"pinata.secret_key":         "PINATA_SECRET_KEY",
	"pinata.jwt":                "PINATA_JWT",
	"pinata.cache_size":         "PINATA_CACHE_SIZE",
	"chain.chain_id":            "CHAIN_ID",
	"chain.rpc_url":             "CHAIN_RPC_URL",
	"chain.rpc_urls":            "CHAIN_RPC_URLS",
	"chain.contract":            "MATERIAL_NFT_CONTRACT",
	"chain.private_key":         "WALLET_PRIVATE_KEY",
	"chain.receipt_timeout":     "RECEIPT_TIMEOUT",
	"chain.switch_settle":       "CHAIN_SWITCH_SETTLE",
	"kafka.brokers":             "KAFKA_BROKERS",
	"kafka.topic":               "KAFKA_TOPIC",
	"minio.endpoint":            "MINIO_ENDPOINT",
	"minio.access_key":          "MINIO_ACCESS_KEY",
	"minio.secret_key":          "MINIO_SECRET_KEY",
	"minio.use_ssl":             "MINIO_USE_SSL",
	"minio.bucket":              "MINIO_BUCKET_NAME",
	"session.token_file":        "SESSION_TOKEN_FILE",
	"log.level":                 "LOG_LEVEL",
}

func LoadConfig() (*Config, error) {
	// .env 可选
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	v := viper.New()

	// 设置默认值
	v.SetDefault("server.port", "8088")
	v.SetDefault("server.metrics_port", "9098")
	v.SetDefault("server.workflow_timeout", "5m")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "baselibrary.db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("backend.base_url", "http://localhost:8001")
	v.SetDefault("backend.prompt_config_url", "http://localhost:8002")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.process_timeout", "10m")
	v.SetDefault("pinata.api_url", "https://api.pinata.cloud")
	v.SetDefault("pinata.gateway_url", "https://gateway.pinata.cloud/ipfs/")
	v.SetDefault("pinata.cache_size", 128)
	v.SetDefault("chain.chain_id", 8453)
	v.SetDefault("chain.rpc_url", "https://mainnet.base.org")
	v.SetDefault("chain.contract", "0xd40cf2739e48d3eaeef60f296f70b915fdd8f3fb")
	v.SetDefault("chain.receipt_timeout", "60s")
	v.SetDefault("chain.switch_settle", "1s")
	v.SetDefault("kafka.topic", "material-mint-events")
	v.SetDefault("minio.bucket", "pinned-materials")
	v.SetDefault("session.token_file", defaultTokenFile())
	v.SetDefault("log.level", "info")

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %v", err)
	}

	// 验证必需的配置
	if config.Pinata.JWT == "" && (config.Pinata.APIKey == "" || config.Pinata.SecretKey == "") {
		log.Println("Warning: Pinata credentials not configured")
	}
	if config.Chain.PrivateKey == "" {
		log.Println("Warning: WALLET_PRIVATE_KEY not configured, minting disabled")
	}
	return config, nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".baselibrary-token"
	}
	return filepath.Join(home, ".baselibrary", "token")
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Endpoints parses CHAIN_RPC_URLS ("8453=https://...,84532=https://...")
// and always includes RPCURL under ChainID.
func (c *ChainConfig) Endpoints() (map[uint64]string, error) {
	out := map[uint64]string{}
	for _, pair := range strings.Split(c.RPCURLs, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, url, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("CHAIN_RPC_URLS: %q is not id=url", pair)
		}
		chainID, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("CHAIN_RPC_URLS: bad chain id %q: %w", id, err)
		}
		out[chainID] = strings.TrimSpace(url)
	}
	if _, ok := out[c.ChainID]; !ok && c.RPCURL != "" {
		out[c.ChainID] = c.RPCURL
	}
	return out, nil
}

func (c *KafkaConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (c *MinIOConfig) Enabled() bool {
	return c.Endpoint != "" && c.BucketName != ""
}
