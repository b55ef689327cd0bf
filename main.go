package main

import (
	"botgate/internal/captcha"
	"botgate/internal/challenge"
	"botgate/internal/config"
	"botgate/internal/database"
	"botgate/internal/detector"
	logger "botgate/internal/logging"
	"botgate/internal/router"
	"botgate/internal/services"
	"botgate/internal/session"

	"go.uber.org/zap"
)

func main() {
	// Initialize Logger
	log, err := logger.Init(".")
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Initialize Configuration
	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize the audit database when enabled. The verification flow
	// itself never depends on it.
	if config.Conf.Database.Enabled {
		database.Init(log)
	}

	// Load the challenge bank at startup
	bank, err := challenge.LoadBank(config.Conf.Captcha.Bank)
	if err != nil {
		log.Fatal("Failed to load challenge bank", zap.Error(err))
	}
	generator := challenge.NewGenerator(bank, "/assets/generated")

	// Load the behavioral classifier. A missing artifact is fatal only when
	// the deployment requires kinematic gating; otherwise movement scoring
	// runs in skipped mode.
	var classifier detector.Classifier
	forest, err := detector.LoadForest(config.Conf.Detector.Model)
	switch {
	case err == nil:
		classifier = forest
		log.Info("Behavioral classifier loaded",
			zap.String("version", forest.Version),
			zap.Int("trees", len(forest.Trees)))
	case config.Conf.Detector.Required:
		log.Fatal("Behavioral classifier required but unavailable", zap.Error(err))
	default:
		log.Warn("Behavioral classifier unavailable, kinematic gating disabled", zap.Error(err))
	}
	det := detector.New(classifier, config.Conf.Detector.MinSamples, log)

	// Session store and stage machine
	store := session.NewStore()
	machine := captcha.NewMachine(store, generator, captcha.Settings{
		Attempts:     config.Conf.Captcha.Attempts,
		Window:       config.Conf.Captcha.FreshnessWindow,
		PartFailOpen: config.Conf.Captcha.PartFailOpen,
	}, log)

	// Background sweep of stale assets and abandoned sessions
	services.NewCleanup(log, store).Start()

	// Setup router, passing the logger to it
	r := router.Setup(log, machine, store, det)

	// Start the Gin server
	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
