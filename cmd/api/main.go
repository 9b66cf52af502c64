package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/cfdi-go/internal/application/invoicing"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/internal/infrastructure/credential"
	infrapdf "github.com/jhoicas/cfdi-go/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/cfdi-go/internal/interfaces/http"
	"github.com/jhoicas/cfdi-go/pkg/config"
	"github.com/jhoicas/cfdi-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		Name:  cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("addr", cfg.HTTP.Addr()).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	strategy, err := cfdi.ParseRoundingStrategy(cfg.Compute.Rounding)
	if err != nil {
		log.Fatal().Err(err).Msg("CFDI_ROUNDING")
	}
	opts := []invoicing.Option{
		invoicing.WithRounding(cfdi.Rounding{
			HeaderDecimals: int32(cfg.Compute.HeaderDecimals),
			ItemsDecimals:  int32(cfg.Compute.ItemsDecimals),
			Strategy:       strategy,
		}),
		invoicing.WithExpeditionZipCode(cfg.Credential.ExpeditionZipCode),
		invoicing.WithOriginalStringPath(cfg.Credential.OriginalStringPath),
	}

	// Sin certificado la API calcula y serializa, pero rechaza el sellado con 503.
	if cfg.Credential.Enabled() {
		cred, err := credential.Load(cfg.Credential.CertPath, cfg.Credential.KeyPath, cfg.Credential.KeyPassword)
		if err != nil {
			log.Fatal().Err(err).Str("cert", cfg.Credential.CertPath).Msg("cargar certificado de sello digital")
		}
		cred.WithTransformer(credential.XSLTTransformer{Binary: cfg.Credential.XSLTProcPath})
		log.Info().
			Str("no_certificado", cred.CertificateNumber()).
			Time("vigencia", cred.Certificate().NotAfter).
			Msg("certificado de sello digital cargado")
		opts = append(opts, invoicing.WithCredential(cred))
	} else {
		log.Warn().Msg("CFDI_CERT_PATH vacío: sellado deshabilitado")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
		Logger:    log.Component("http"),
		Options:   opts,
		PDF:       infrapdf.NewMarotoPDFGenerator(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
