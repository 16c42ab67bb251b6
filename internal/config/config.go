package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from app.yaml or from environment variables prefixed with MAPS_.
type Config struct {
	ServerAddress string        `mapstructure:"server_address"`
	DBSource      string        `mapstructure:"db_source"`
	CatalogPath   string        `mapstructure:"catalog_path"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`

	Log       LogConfig       `mapstructure:"log"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Nominatim NominatimConfig `mapstructure:"nominatim"`
	MapBox    MapBoxConfig    `mapstructure:"mapbox"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Writeback WritebackConfig `mapstructure:"writeback"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// MapsConfig tunes the map data pipeline.
type MapsConfig struct {
	CoordinateFetchDelay time.Duration `mapstructure:"coordinate_fetch_delay"`
	Timezone             string        `mapstructure:"timezone"`
	DefaultLang          string        `mapstructure:"default_lang"`
}

type NominatimConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// MapBoxConfig holds the paid provider settings. An empty token disables the provider.
type MapBoxConfig struct {
	Token   string        `mapstructure:"token"`
	BaseURL string        `mapstructure:"base_url"`
	Referer string        `mapstructure:"referer"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RedisConfig enables the geocode cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

// WritebackConfig selects where resolved coordinates are written: "postgres" or "kafka".
type WritebackConfig struct {
	Sink string `mapstructure:"sink"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// LoadConfig reads configuration from app.yaml in path, then applies environment overrides.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("MAPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_address", ":8080")
	v.SetDefault("catalog_path", "./configs/models.yaml")
	v.SetDefault("session_ttl", 30*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("maps.coordinate_fetch_delay", time.Second)
	v.SetDefault("maps.timezone", "UTC")
	v.SetDefault("maps.default_lang", "en")
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "maps-api/1.0")
	v.SetDefault("nominatim.timeout", 10*time.Second)
	v.SetDefault("mapbox.base_url", "https://api.mapbox.com")
	v.SetDefault("mapbox.timeout", 10*time.Second)
	v.SetDefault("redis.ttl", 24*time.Hour)
	v.SetDefault("storage.bucket", "estate-boundaries")
	v.SetDefault("writeback.sink", "postgres")
	v.SetDefault("kafka.topic", "location-coordinates")
	v.SetDefault("kafka.group_id", "maps-writeback")
}
