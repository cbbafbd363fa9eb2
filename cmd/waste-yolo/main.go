// Command waste-yolo runs the waste classification desktop app.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Cubiaa/waste-yolo/config"
	"github.com/Cubiaa/waste-yolo/controller"
	"github.com/Cubiaa/waste-yolo/gui"
	"github.com/Cubiaa/waste-yolo/history"
	"github.com/Cubiaa/waste-yolo/logger"
	"github.com/Cubiaa/waste-yolo/waste"
	"github.com/Cubiaa/waste-yolo/yolo"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	modelPath := flag.String("model", "", "ONNX model path (overrides config)")
	classesPath := flag.String("classes", "", "class names YAML (overrides config)")
	initConfig := flag.Bool("init-config", false, "write the default config to -config and exit")
	flag.Parse()

	if *initConfig {
		cm := config.NewConfigManager(*configPath)
		if err := cm.CreateDefaultConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default config written to %s\n", cm.Path())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}
	if *classesPath != "" {
		cfg.Model.ClassesPath = *classesPath
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("waste-yolo exited with error", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *logger.Logger) error {
	predictor, err := newPredictor(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := predictor.Close(); err != nil {
			log.Warn("failed to close detector", "error", err)
		}
	}()

	classifier, err := newClassifier(cfg)
	if err != nil {
		return err
	}

	var store *history.Store
	if cfg.History.DBPath != "" {
		store, err = history.OpenStore(cfg.History.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()

		if cfg.History.Retention > 0 {
			removed, err := store.Prune(context.Background(), cfg.History.Retention)
			if err != nil {
				log.Warn("failed to prune history", "error", err)
			} else if removed > 0 {
				log.Info("pruned detection history", "removed", removed)
			}
		}
	}
	recorder := history.NewRecorder(history.New(cfg.History.Limit), store, log.Named("history"))

	ctrl := controller.New(predictor, classifier,
		controller.WithLogger(log),
		controller.WithRecorder(recorder),
		controller.WithOutputDir(cfg.Output.Dir),
		controller.WithFrameRate(cfg.Playback.FrameRate),
		controller.WithPauseInterval(cfg.Playback.PauseInterval),
		controller.WithStopTimeout(cfg.Playback.StopTimeout),
	)
	defer ctrl.Close()

	window := gui.NewWasteWindow(ctrl, gui.Config{
		Title:         cfg.GUI.WindowTitle,
		DisplayWidth:  cfg.GUI.DisplayWidth,
		DisplayHeight: cfg.GUI.DisplayHeight,
		MaxDevices:    cfg.GUI.MaxDevices,
	}, log)

	log.Info("waste-yolo started", "model", cfg.Model.Path, "remote", cfg.Remote.Enabled,
		"threshold", predictor.ConfThreshold(), "output_dir", cfg.Output.Dir)
	window.ShowAndRun()
	return nil
}

func newPredictor(cfg *config.AppConfig, log *logger.Logger) (yolo.Predictor, error) {
	if cfg.Remote.Enabled {
		log.Info("using remote detector", "host", cfg.Remote.Host, "path", cfg.Remote.Path)
		return yolo.NewRemoteDetector(cfg.Remote.Host, cfg.Remote.Path, cfg.Remote.Timeout, &cfg.Detection, log), nil
	}

	yoloCfg, options := detectorSettings(cfg)
	detector, err := yolo.NewYOLO(cfg.Model.Path, cfg.Model.ClassesPath, yoloCfg, options, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	log.Info("detector ready", "classes", len(detector.Classes()), "gpu", yoloCfg.UseGPU)
	return &localPredictor{YOLO: detector, log: log}, nil
}

// detectorSettings builds the session and detection settings from cfg.
func detectorSettings(cfg *config.AppConfig) (*yolo.YOLOConfig, *yolo.DetectionOptions) {
	m := cfg.Model.YOLO
	yoloCfg := yolo.DefaultConfig().
		WithGPU(m.UseGPU).
		WithGPUDeviceID(m.GPUDeviceID).
		WithLibraryPath(m.LibraryPath).
		WithThreads(m.Threads)
	switch {
	case m.InputWidth > 0 && m.InputHeight > 0:
		yoloCfg.WithInputDimensions(m.InputWidth, m.InputHeight)
	case m.InputSize > 0:
		yoloCfg.WithInputSize(m.InputSize)
	}

	d := cfg.Detection
	options := yolo.DefaultDetectionOptions().
		WithConfThreshold(d.ConfThreshold).
		WithIOUThreshold(d.IOUThreshold).
		WithDrawBoxes(d.DrawBoxes).
		WithDrawLabels(d.DrawLabels)
	if d.BoxColor != "" {
		options.WithBoxColor(d.BoxColor)
	}
	if d.LabelColor != "" {
		options.WithLabelColor(d.LabelColor)
	}
	if d.LineWidth > 0 {
		options.WithLineWidth(d.LineWidth)
	}
	return yoloCfg, options
}

// newClassifier applies the categories file, then the inline table.
func newClassifier(cfg *config.AppConfig) (*waste.Classifier, error) {
	mapping, err := waste.ParseMapping(cfg.WasteCategories)
	if err != nil {
		return nil, err
	}
	if cfg.WasteCategoriesFile == "" {
		return waste.NewClassifier(mapping), nil
	}

	classifier, err := waste.LoadClassifier(cfg.WasteCategoriesFile)
	if err != nil {
		return nil, err
	}
	for cat, classes := range mapping {
		for _, class := range classes {
			classifier.Set(class, cat)
		}
	}
	return classifier, nil
}

// localPredictor also tears down the ONNX Runtime environment on Close.
type localPredictor struct {
	*yolo.YOLO
	log *logger.Logger
}

func (p *localPredictor) Close() error {
	err := p.YOLO.Close()
	if derr := yolo.DestroyEnvironment(); derr != nil {
		p.log.Warn("failed to destroy onnxruntime environment", "error", derr)
	}
	return err
}
