package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/seankd/gifforge/internal/config"
	"github.com/seankd/gifforge/internal/encode"
	"github.com/seankd/gifforge/internal/engine"
	"github.com/seankd/gifforge/internal/source"
	"github.com/seankd/gifforge/internal/system"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)

	// Defaults, optionally overridden by a gifforge.yaml next to the
	// binary, then by flags.
	viper.SetDefault("fps", 24)
	viper.SetDefault("loop", 0)
	viper.SetDefault("height", 0)
	viper.SetDefault("optimize", true)
	viper.SetDefault("quality", 85)
	viper.SetDefault("format", "gif")
	viper.SetDefault("workers", 0)
	viper.SetConfigName("gifforge")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig()

	outputPtr := flag.String("output", "", "Output path (default: derived from the first input)")
	fpsPtr := flag.Int("fps", viper.GetInt("fps"), "Frame rate")
	loopPtr := flag.Int("loop", viper.GetInt("loop"), "Loop count (0 = infinite)")
	heightPtr := flag.Int("height", viper.GetInt("height"), "Output height in px (0 = original)")
	optimizePtr := flag.Bool("optimize", viper.GetBool("optimize"), "Cap dimensions at 800px and reduce size")
	qualityPtr := flag.Int("quality", viper.GetInt("quality"), "Quality 1-100")
	formatPtr := flag.String("format", viper.GetString("format"), "Output format: gif or webp")
	workersPtr := flag.Int("workers", viper.GetInt("workers"), "Decode workers (0 = auto)")
	presetPtr := flag.String("preset", "", "Export preset YAML file")
	verbosePtr := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	if *verbosePtr {
		log = log.Level(zerolog.DebugLevel)
	}

	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: gifforge [options] <image|pdf|dng> ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	settings := config.Default()
	if *presetPtr != "" {
		loaded, err := config.LoadPreset(*presetPtr)
		if err != nil {
			log.Fatal().Err(err).Str("preset", *presetPtr).Msg("could not load preset")
		}
		settings = loaded
		// Flags given explicitly still win over the preset.
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "fps":
				settings.FPS = *fpsPtr
			case "loop":
				settings.LoopCount = *loopPtr
			case "height":
				settings.OutputHeight = *heightPtr
			case "optimize":
				settings.Optimize = *optimizePtr
			case "quality":
				settings.Quality = *qualityPtr
			case "format":
				settings.Format = config.Format(strings.ToLower(*formatPtr))
			}
		})
	} else {
		settings.FPS = *fpsPtr
		settings.LoopCount = *loopPtr
		settings.OutputHeight = *heightPtr
		settings.Optimize = *optimizePtr
		settings.Quality = *qualityPtr
		settings.Format = config.Format(strings.ToLower(*formatPtr))
	}

	if err := settings.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid export settings")
	}

	output := *outputPtr
	if output == "" {
		base := filepath.Base(inputs[0])
		name := strings.TrimSuffix(base, filepath.Ext(base))
		name = strings.ReplaceAll(name, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		output = fmt.Sprintf("%s_%s.%s", name, timestamp, settings.Format)
	}

	system.InitResourceLimits(log)

	eng := engine.New(settings, source.FileDecoder{}, engine.Options{
		Logger:  log,
		Workers: *workersPtr,
	})
	defer eng.Close()

	if err := eng.AddFrames(inputs); err != nil {
		log.Fatal().Err(err).Msg("could not add frames")
	}
	log.Info().Int("frames", eng.FrameCount()).Msg("frames loaded")

	// Ctrl-C cancels the export at the next frame boundary; no partial
	// file is left behind.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	progress := func(processed, total int) {
		fmt.Printf("[>] Ready: %d/%d\n", processed, total)
	}

	err := eng.Export(ctx, output, progress)
	switch {
	case errors.Is(err, encode.ErrCancelled):
		log.Warn().Msg("export cancelled, no output written")
		os.Exit(1)
	case err != nil:
		log.Fatal().Err(err).Msg("export failed")
	}

	fmt.Printf("[+++] Done: %s\n", output)
}
