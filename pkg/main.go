package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	pkg "github.com/secvote/secvote/pkg/internal"
	"github.com/secvote/secvote/pkg/internal/cache"
	"github.com/secvote/secvote/pkg/internal/database"
	"github.com/secvote/secvote/pkg/internal/http"
	"github.com/secvote/secvote/pkg/internal/http/api"
	"github.com/secvote/secvote/pkg/internal/services"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	// Booting screen
	fmt.Println(color.YellowString(" ____         __     __    _\n/ ___|  ___  _\\ \\   / /__ | |_ ___\n\\___ \\ / _ \\/ __\\ \\ / / _ \\| __/ _ \\\n ___) |  __/ (__ \\ V / (_) | ||  __/\n|____/ \\___|\\___| \\_/ \\___/ \\__\\___|"))
	fmt.Printf("%s v%s\n", color.New(color.FgHiYellow).Add(color.Bold).Sprintf("SecVote"), pkg.AppVersion)
	fmt.Printf("The poll voting service with duplicate-proof admission\n")
	color.HiBlack("=====================================================\n")

	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	// Connect to database
	if err := database.NewGorm(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connect to database.")
	} else if err := database.RunMigration(database.C); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
	}

	// Initialize cache
	if err := cache.NewStore(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when initializing cache store.")
	}

	// Assemble the vote path with explicit handles so the core never touches
	// process-wide state on its own.
	ledger := services.NewVoteLedger(database.C)
	membership := services.NewMembershipCache(cache.S)
	oracle := services.NewPollDirectory(database.C)

	api.Votes = services.NewAdmissionController(ledger, membership, oracle, services.AdmissionConfig{
		AnonymousDedupWindow: viper.GetDuration("votes.anonymous_dedup_window"),
		StorageTimeout:       viper.GetDuration("votes.storage_timeout"),
	})
	api.Results = services.NewResultAggregator(ledger, cache.S, viper.GetDuration("votes.results_cache_ttl"))

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	quartz.AddFunc("@every 60m", services.DoAutoDatabaseCleanup)
	quartz.Start()

	// Server
	go http.NewServer().Listen()

	// Messages
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	quartz.Stop()
}
