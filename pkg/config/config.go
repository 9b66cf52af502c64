package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App        AppConfig
	JWT        JWTConfig
	HTTP       HTTPConfig
	Compute    ComputeConfig
	Credential CredentialConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ComputeConfig precisión y política de redondeo de los cálculos.
type ComputeConfig struct {
	HeaderDecimals int    // Subtotal, Total, resumen de impuestos
	ItemsDecimals  int    // Importe de conceptos y líneas de impuesto
	Rounding       string // away-from-zero, to-even, to-zero, to-negative-infinity, to-positive-infinity
}

// CredentialConfig certificado de sello digital (CSD) y hojas XSLT de cadena original.
type CredentialConfig struct {
	CertPath           string // .cer (DER), .pem o .p12
	KeyPath            string // .key del SAT o .pem (vacío si CertPath es .p12 o PEM combinado)
	KeyPassword        string
	OriginalStringPath string // Directorio con cadenaoriginal_4_0.xslt (vacío = no sellar)
	XSLTProcPath       string // Ejecutable xsltproc (vacío = el del PATH)
	ExpeditionZipCode  string // LugarExpedicion por defecto
}

// Enabled indica si hay certificado configurado.
func (c CredentialConfig) Enabled() bool {
	return c.CertPath != ""
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, HTTP_PORT, JWT_SECRET, CFDI_CERT_PATH, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.MergeInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "cfdi-go"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			Secret: getString(v, "JWT_SECRET", ""),
			Issuer: getString(v, "JWT_ISSUER", "cfdi-go"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Compute: ComputeConfig{
			HeaderDecimals: getInt(v, "CFDI_HEADER_DECIMALS", 2),
			ItemsDecimals:  getInt(v, "CFDI_ITEMS_DECIMALS", 6),
			Rounding:       getString(v, "CFDI_ROUNDING", "away-from-zero"),
		},
		Credential: CredentialConfig{
			CertPath:           getString(v, "CFDI_CERT_PATH", ""),
			KeyPath:            getString(v, "CFDI_KEY_PATH", ""),
			KeyPassword:        getString(v, "CFDI_KEY_PASSWORD", ""),
			OriginalStringPath: getString(v, "CFDI_ORIGINAL_STRING_PATH", ""),
			XSLTProcPath:       getString(v, "CFDI_XSLTPROC_PATH", ""),
			ExpeditionZipCode:  getString(v, "CFDI_EXPEDITION_ZIP", ""),
		},
	}

	if cfg.Compute.HeaderDecimals < 0 || cfg.Compute.ItemsDecimals < 0 {
		return nil, fmt.Errorf("config: los decimales no pueden ser negativos")
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
