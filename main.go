package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "github.com/samuelfneumann/crlearn/agent/nonlinear/discrete/policyhead"
	"github.com/samuelfneumann/crlearn/experiment"
	"github.com/samuelfneumann/crlearn/experiment/checkpointer"
	"github.com/samuelfneumann/crlearn/experiment/tracker"
)

func main() {
	configFile := flag.String("config", "", "experiment configuration file")
	seed := flag.Uint64("seed", 1, "random seed")
	outDir := flag.String("out", ".", "directory to save data in")
	dbFile := flag.String("db", "", "SQLite database to track the run in")
	checkpointEvery := flag.Int("checkpoint", 0,
		"steps between policy checkpoints, 0 to disable")
	level := flag.String("log", "info", "log level")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	lvl, err := zerolog.ParseLevel(*level)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid log level")
	}
	logger = logger.Level(lvl)

	if err := run(*configFile, *seed, *outDir, *dbFile, *checkpointEvery,
		logger); err != nil {
		logger.Fatal().Err(err).Msg("experiment failed")
	}
}

// run loads an experiment configuration and runs the experiment it
// describes
func run(configFile string, seed uint64, outDir, dbFile string,
	checkpointEvery int, logger zerolog.Logger) error {
	if configFile == "" {
		return fmt.Errorf("no configuration file given")
	}
	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("could not read configuration: %v", err)
	}

	var config experiment.Config
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("could not parse configuration: %v", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("could not create output directory: %v", err)
	}
	trackers := []tracker.Tracker{
		tracker.NewReturn(filepath.Join(outDir, "returns.bin")),
		tracker.NewEpisodeLength(filepath.Join(outDir, "lengths.bin")),
	}

	if dbFile != "" {
		db, err := tracker.NewSQLite(dbFile, config)
		if err != nil {
			return err
		}
		defer db.Close()
		trackers = append(trackers, db)
		logger.Info().Str("run", db.RunID()).Str("db", dbFile).
			Msg("tracking run")
	}

	exp, err := config.CreateExp(seed, logger, trackers, nil)
	if err != nil {
		return err
	}
	defer exp.Close()

	if checkpointEvery > 0 {
		object, ok := exp.Agent().(checkpointer.Serializable)
		if !ok {
			return fmt.Errorf("agent %T cannot be checkpointed", exp.Agent())
		}
		c, err := checkpointer.NewNStep(checkpointEvery, object,
			checkpointer.FilenameEnumerator(0,
				filepath.Join(outDir, "checkpoint"), ".bin"))
		if err != nil {
			return err
		}
		exp.AddCheckpointer(c)
	}

	logger.Info().
		Uint64("seed", seed).
		Uint("steps", config.MaxSteps).
		Int("envs", config.NumEnvs).
		Msg("starting experiment")

	if err := exp.Run(); err != nil {
		return err
	}
	return exp.Save()
}
