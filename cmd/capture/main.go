// Command capture rectifies a card held in front of a camera. It reads frames until one
// shows all four markers, then writes the rectified card. With -window the live result is
// shown instead and the zoom can be changed with + and -, s saves and q quits.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/nvr-ai/go-fiducial/config"
	"github.com/nvr-ai/go-fiducial/corners"
	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/nvr-ai/go-fiducial/logger"
	"github.com/nvr-ai/go-fiducial/pipeline"
	"github.com/nvr-ai/go-fiducial/session"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	keyEscape  = 27
	keyQuit    = 'q'
	keySave    = 's'
	keyZoomIn  = '+'
	keyZoomOut = '-'
)

func main() {
	var (
		deviceID   = flag.Int("device", 0, "Video capture device")
		configFile = flag.String("config", "", "Path to a YAML configuration file")
		output     = flag.String("output", "capture_rectified.jpg", "Where to write the rectified card")
		maxFrames  = flag.Int("max-frames", 300, "Give up after this many frames without a full marker set (0 = never)")
		window     = flag.Bool("window", false, "Show the live rectification instead of exiting on the first success")
		debug      = flag.Bool("debug", false, "Log every pipeline stage")
	)
	flag.Parse()

	if err := run(*deviceID, *configFile, *output, *maxFrames, *window, *debug); err != nil {
		log.Fatal(err)
	}
}

func run(deviceID int, configFile, output string, maxFrames int, window, debug bool) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if debug {
		level = logger.LevelDebug
	}
	lg := logger.NewStd(level)

	det, err := detector.NewArucoDetector(cfg.Detector)
	if err != nil {
		return err
	}
	defer det.Close()

	p, err := pipeline.FromConfig(cfg, det, lg)
	if err != nil {
		return err
	}
	sess, err := session.New(p, cfg.Output)
	if err != nil {
		return err
	}

	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return errors.Wrapf(err, "open capture device %d", deviceID)
	}
	defer webcam.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	var win *gocv.Window
	if window {
		win = gocv.NewWindow("Rectified card")
		defer win.Close()
	}

	// FPS tracking variables
	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	lg.Info("start reading camera device: %v", deviceID)
	for n := 1; ; n++ {
		if ok := webcam.Read(&frame); !ok {
			return errors.Errorf("cannot read device %v", deviceID)
		}
		if frame.Empty() {
			continue
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}

		img, err := images.FromMat(frame)
		if err != nil {
			return err
		}
		if err := sess.SetImage(fmt.Sprintf("frame %d", n), img); err != nil {
			return err
		}

		res, err := sess.Process()
		if err != nil {
			var countErr *corners.MarkerCountError
			if errors.As(err, &countErr) {
				lg.Debug("frame %d: %d markers | FPS: %.2f", n, countErr.Found, fps)
			} else {
				lg.Warning("frame %d: %v", n, err)
			}
			if !window && maxFrames > 0 && n >= maxFrames {
				return errors.Errorf("no card found in %d frames", n)
			}
		} else if !window {
			return save(output, res.Image, cfg.Quality, lg)
		}

		if win == nil {
			continue
		}
		if res != nil {
			if err := show(win, res.Image); err != nil {
				return err
			}
		} else {
			win.IMShow(frame)
		}

		switch key := win.WaitKey(1); key {
		case keyQuit, keyEscape:
			return nil
		case keyZoomIn:
			lg.Info("zoom %.1f", sess.ZoomIn())
		case keyZoomOut:
			lg.Info("zoom %.1f", sess.ZoomOut())
		case keySave:
			if r, ok := sess.Result().(session.Rectified); ok {
				if err := save(output, r.Result.Image, cfg.Quality, lg); err != nil {
					lg.Error("%v", err)
				}
			}
		}
	}
}

func show(win *gocv.Window, img image.Image) error {
	mat, err := images.ToMat(img)
	if err != nil {
		return err
	}
	defer mat.Close()
	win.IMShow(mat)
	return nil
}

func save(path string, img image.Image, quality int, lg *logger.Logger) error {
	if err := images.Save(path, img, quality); err != nil {
		return err
	}
	lg.Info("rectified card written to %s", path)
	return nil
}
