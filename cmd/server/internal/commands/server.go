package commands

import (
	"errors"
	"fmt"

	"github.com/idstrust/helpdesk/internal/auth"
	"github.com/idstrust/helpdesk/internal/license"
	"github.com/idstrust/helpdesk/internal/logger"
	"github.com/idstrust/helpdesk/internal/notion"
	"github.com/idstrust/helpdesk/internal/server"
	"github.com/idstrust/helpdesk/internal/session"
	"github.com/idstrust/helpdesk/internal/ticket"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"HELPDESK_LISTEN"`
	Cert   string `help:"path to TLS cert file" default:"" env:"HELPDESK_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"HELPDESK_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"*" env:"HELPDESK_CORS_ORIGINS"`

	// Credential configuration. The same secret keys both the static
	// bearer check and the session token MAC.
	SecretKey string `help:"shared secret for bearer auth and session token signing" env:"SECRET_KEY"`

	// External document store
	NotionToken   string `help:"integration token for the document store" env:"NOTION_API_KEY"`
	NotionBaseURL string `help:"document store API base URL" default:"https://api.notion.com/v1" env:"HELPDESK_NOTION_BASE_URL"`

	// Collection IDs
	InquiryDatabaseID        string `help:"inquiry tickets database ID" env:"ASK_TICKETS_DATABASE_ID"`
	InquiryDataSourceID      string `help:"inquiry tickets data source ID" env:"ASK_TICKETS_DATA_SOURCE_ID"`
	RepairDatabaseID         string `help:"repair tickets database ID" env:"REPAIR_TICKETS_DATABASE_ID"`
	RepairDataSourceID       string `help:"repair tickets data source ID" env:"REPAIR_TICKETS_DATA_SOURCE_ID"`
	AssetsDatabaseID         string `help:"assets database ID" env:"ASSETS_DATABASE_ID"`
	AssetsDataSourceID       string `help:"assets data source ID" env:"ASSETS_DATA_SOURCE_ID"`
	StocktakingDataSourceID  string `help:"stocktaking records data source ID" env:"STOCKTAKING_DATA_SOURCE_ID"`
	StocktakingInfoSourceID  string `help:"stocktaking campaign info data source ID" env:"STOCKTAKING_INFO_DATA_SOURCE_ID"`
	DueDiligenceDataSourceID string `help:"due diligence records data source ID" env:"DUE_DILIGENCE_DATA_SOURCE_ID"`
	DueDiligenceInfoSourceID string `help:"due diligence campaign info data source ID" env:"DUE_DILIGENCE_INFO_DATA_SOURCE_ID"`

	// License catalog
	LicenseCatalog string            `help:"path to a YAML license catalog; the built-in catalog is used when empty" env:"HELPDESK_LICENSE_CATALOG"`
	LicenseSources map[string]string `help:"license collection name to data source ID mapping for the built-in catalog" env:"HELPDESK_LICENSE_SOURCES"`
}

func (c *ServerCmd) Validate() error {
	if c.SecretKey == "" {
		return errors.New("shared secret is required (--secret-key or SECRET_KEY)")
	}
	if len(c.SecretKey) < 32 {
		return errors.New("shared secret must be at least 32 bytes (256 bits) for HMAC-SHA256")
	}
	if c.NotionToken == "" {
		return errors.New("document store token is required (--notion-token or NOTION_API_KEY)")
	}
	return nil
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	sessions, err := session.NewService([]byte(c.SecretKey))
	if err != nil {
		return fmt.Errorf("failed to create session service: %w", err)
	}

	store, err := notion.NewClient(notion.Config{
		Token:   c.NotionToken,
		BaseURL: c.NotionBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create store client: %w", err)
	}

	tickets := ticket.NewService(store,
		ticket.Type{
			Kind:         ticket.KindInquiry,
			DataSourceID: c.InquiryDataSourceID,
			DatabaseID:   c.InquiryDatabaseID,
			Fields:       ticket.InquiryFields,
		},
		ticket.Type{
			Kind:         ticket.KindRepair,
			DataSourceID: c.RepairDataSourceID,
			DatabaseID:   c.RepairDatabaseID,
			Fields:       ticket.RepairFields,
		},
	)

	catalog := license.Default(c.LicenseSources)
	if c.LicenseCatalog != "" {
		catalog, err = license.Load(c.LicenseCatalog)
		if err != nil {
			return err
		}
		log.Info().Str("path", c.LicenseCatalog).Int("collections", len(catalog.Collections)).Msg("Loaded license catalog")
	}
	log.Info().Int("active", len(catalog.Active())).Msg("License collections configured")

	srv := server.New(
		server.Config{
			AssetsDataSourceID:           c.AssetsDataSourceID,
			AssetsDatabaseID:             c.AssetsDatabaseID,
			InquiryDatabaseID:            c.InquiryDatabaseID,
			RepairDatabaseID:             c.RepairDatabaseID,
			StocktakingDataSourceID:      c.StocktakingDataSourceID,
			StocktakingInfoDataSourceID:  c.StocktakingInfoSourceID,
			DueDiligenceDataSourceID:     c.DueDiligenceDataSourceID,
			DueDiligenceInfoDataSourceID: c.DueDiligenceInfoSourceID,
			CORSOrigins:                  c.CORSOrigins,
		},
		store,
		sessions,
		auth.NewAuthorizer([]byte(c.SecretKey)),
		tickets,
		license.NewService(store, catalog),
	)

	httpServer := configureHTTPServer(c.Listen, srv.Handler(log))

	if c.Cert != "" && c.Key != "" {
		log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
		return httpServer.ListenAndServeTLS(c.Cert, c.Key)
	}

	log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
	return httpServer.ListenAndServe()
}
