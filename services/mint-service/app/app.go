// Package app builds the mint companion from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/RigelNana/baselibrary/services/mint-service/chain"
	"github.com/RigelNana/baselibrary/services/mint-service/config"
	"github.com/RigelNana/baselibrary/services/mint-service/database"
	"github.com/RigelNana/baselibrary/services/mint-service/events"
	"github.com/RigelNana/baselibrary/services/mint-service/pinata"
	"github.com/RigelNana/baselibrary/services/mint-service/repository"
	"github.com/RigelNana/baselibrary/services/mint-service/service"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrMintingDisabled is returned by Minting when no wallet key or contract
// address is configured.
var ErrMintingDisabled = errors.New("minting disabled: set WALLET_PRIVATE_KEY and MATERIAL_NFT_CONTRACT")

type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Backend  *backend.Client
	Pinata   *pinata.Client
	Session  *backend.Session
	Attempts repository.MintAttemptRepository
	Wallet   *chain.KeyedWallet

	mint    service.MintService
	mintErr error
	events  events.Publisher
	db      *gorm.DB
}

func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// New connects everything the configuration asks for. Optional parts
// (object mirror, Kafka, wallet) are skipped with a warning when absent.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, events: events.NopPublisher{}}

	a.Backend = backend.NewClient(backend.Config{
		BaseURL:         cfg.Backend.BaseURL,
		PromptConfigURL: cfg.Backend.PromptConfigURL,
		Timeout:         cfg.Backend.Timeout,
		ProcessTimeout:  cfg.Backend.ProcessTimeout,
	}, logger)

	sess, err := backend.NewSession(backend.FileStore{Path: cfg.Session.TokenFile})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	a.Session = sess

	opts := []pinata.Option{pinata.WithLogger(logger)}
	if cfg.MinIO.Enabled() {
		mirror, err := pinata.NewMinioMirror(ctx, pinata.MirrorConfig{
			Endpoint:        cfg.MinIO.Endpoint,
			AccessKeyID:     cfg.MinIO.AccessKeyID,
			SecretAccessKey: cfg.MinIO.SecretAccessKey,
			BucketName:      cfg.MinIO.BucketName,
			UseSSL:          cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warnf("pinned content mirror disabled: %v", err)
		} else {
			opts = append(opts, pinata.WithMirror(mirror))
		}
	}
	a.Pinata, err = pinata.NewClient(pinata.Config{
		APIURL:     cfg.Pinata.APIURL,
		GatewayURL: cfg.Pinata.GatewayURL,
		APIKey:     cfg.Pinata.APIKey,
		SecretKey:  cfg.Pinata.SecretKey,
		JWT:        cfg.Pinata.JWT,
		CacheSize:  cfg.Pinata.CacheSize,
	}, opts...)
	if err != nil {
		return nil, err
	}

	a.db, err = database.InitDB(&cfg.Database)
	if err != nil {
		return nil, err
	}
	a.Attempts = repository.NewMintAttemptRepository(a.db)

	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		a.events = events.NewKafkaPublisher(brokers, cfg.Kafka.Topic, logger)
	} else {
		logger.Info("KAFKA_BROKERS not set, mint events are not published")
	}

	a.mint, a.mintErr = a.buildMinting(ctx)
	if a.mintErr != nil {
		logger.Warnf("%v", a.mintErr)
	}
	return a, nil
}

func (a *App) buildMinting(ctx context.Context) (service.MintService, error) {
	cfg := a.Config.Chain
	contract, err := chain.ParseContractAddress(cfg.Contract)
	if err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrMintingDisabled, err)
	}
	if cfg.PrivateKey == "" {
		return nil, ErrMintingDisabled
	}
	key, err := chain.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	endpoints, err := cfg.Endpoints()
	if err != nil {
		return nil, err
	}
	a.Wallet, err = chain.NewKeyedWallet(ctx, key, cfg.RPCURL, endpoints)
	if err != nil {
		return nil, fmt.Errorf("connect wallet: %w", err)
	}
	minter := chain.NewMinter(a.Wallet, a.Pinata, chain.MinterConfig{
		ChainID:        cfg.ChainID,
		Contract:       contract,
		ReceiptTimeout: cfg.ReceiptTimeout,
		SettleDelay:    cfg.SwitchSettle,
	}, a.Logger)
	a.Logger.Infof("minting as %s on chain %d via contract %s", a.Wallet.Address().Hex(), cfg.ChainID, contract.Hex())

	return service.NewMintService(service.Deps{
		Backend:    a.Backend,
		Minter:     minter,
		Uploader:   a.Pinata,
		ChainIndex: chain.NewReader(contract, a.Wallet),
		Attempts:   a.Attempts,
		Events:     a.events,
		Logger:     a.Logger,
	}), nil
}

// Minting returns the mint service, or why it is unavailable.
func (a *App) Minting() (service.MintService, error) {
	return a.mint, a.mintErr
}

func (a *App) Close() {
	if a.Wallet != nil {
		a.Wallet.Close()
	}
	if err := a.events.Close(); err != nil {
		a.Logger.Warnf("close event publisher: %v", err)
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
