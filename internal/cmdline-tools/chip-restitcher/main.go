package main

import (
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/nsew-imaging/chipstitch/alignment"
	"github.com/nsew-imaging/chipstitch/config"
	"github.com/nsew-imaging/chipstitch/core/awsutil"
	"github.com/nsew-imaging/chipstitch/core/fileaccess"
	"github.com/nsew-imaging/chipstitch/core/idgen"
	"github.com/nsew-imaging/chipstitch/core/imgcodec"
	"github.com/nsew-imaging/chipstitch/core/logger"
	"github.com/nsew-imaging/chipstitch/core/quadrant"
	"github.com/nsew-imaging/chipstitch/core/timestamper"
	"github.com/nsew-imaging/chipstitch/session"
)

// Waits for the session worker and remembers how the run ended
type consoleListener struct {
	done   chan bool
	result *session.CompositeResult
	err    error
}

func (l *consoleListener) OnProgress(frac float64, label string) {
	fmt.Printf("[%3.0f%%] %v\n", frac*100, label)
}

func (l *consoleListener) OnCompleted(result *session.CompositeResult) {
	l.result = result
	l.done <- true
}

func (l *consoleListener) OnFailed(err error) {
	l.err = err
	l.done <- true
}

func (l *consoleListener) OnCancelled() {
	l.done <- true
}

func main() {
	fmt.Println("===========================")
	fmt.Println("=  NSEW chip restitcher   =")
	fmt.Println("===========================")

	var sidecarPath string
	var scanDir string
	var outPath string
	var bucket string
	var configPath string
	var blendMode string
	var interpolation string
	var outputFormat string
	var verbose bool

	flag.StringVar(&sidecarPath, "sidecar", "", "Path to an alignment sidecar file")
	flag.StringVar(&scanDir, "dir", "", "Scan directory - the most recent sidecar in it is used (ignored if -sidecar given)")
	flag.StringVar(&outPath, "out", "", "Output composite path (default: next to the first-pass composite)")
	flag.StringVar(&bucket, "bucket", "", "S3 bucket holding the scan set (paths become bucket-relative keys)")
	flag.StringVar(&configPath, "config", "", "Restitch config JSON (the blend/interp/format flags override it)")
	flag.StringVar(&blendMode, "blend", "", "Blend mode for overlaps: replace|max|mean")
	flag.StringVar(&interpolation, "interp", "", "Resampling kernel: nearest|bilinear|catmullrom")
	flag.StringVar(&outputFormat, "format", "", "Output format: tiff|png|jpeg")
	flag.BoolVar(&verbose, "verbose", false, "Debug logging")
	flag.Parse()

	log := &logger.StdOutLogger{}
	if verbose {
		log.SetLogLevel(logger.LogDebug)
	} else {
		log.SetLogLevel(logger.LogInfo)
	}

	var fs fileaccess.FileAccess
	root := ""

	if len(bucket) > 0 {
		sess, err := awsutil.GetSession()
		if err != nil {
			fmt.Printf("Failed to create AWS session: %v\n", err)
			os.Exit(1)
		}
		s3svc, err := awsutil.GetS3(sess)
		if err != nil {
			fmt.Printf("Failed to create S3 client: %v\n", err)
			os.Exit(1)
		}

		fs = fileaccess.MakeS3Access(s3svc)
		root = bucket
	} else {
		fs = &fileaccess.FSAccess{}
	}

	cfg := config.Default()
	if len(configPath) > 0 {
		loaded, err := config.Load(fs, root, configPath)
		if err != nil {
			fmt.Printf("Failed to load config %v: %v\n", configPath, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if len(blendMode) > 0 {
		cfg.BlendMode = blendMode
	}
	if len(interpolation) > 0 {
		cfg.Interpolation = interpolation
	}
	if len(outputFormat) > 0 {
		cfg.OutputFormat = outputFormat
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Bad configuration: %v\n", err)
		os.Exit(1)
	}

	var codec imgcodec.ImageCodec
	if len(bucket) > 0 {
		codec = &imgcodec.RemoteCodec{FS: fs, Root: bucket, JPEGQuality: cfg.JPEGQuality}
	} else {
		codec = &imgcodec.FSCodec{JPEGQuality: cfg.JPEGQuality}
	}

	store := alignment.MakeStore(fs, &timestamper.UnixTimeNowStamper{}, log)

	if len(sidecarPath) <= 0 {
		if len(scanDir) <= 0 {
			fmt.Println("One of -sidecar or -dir is required")
			flag.Usage()
			os.Exit(1)
		}

		found, err := store.FindLatestSidecar(root, path.Clean(scanDir))
		if err != nil {
			fmt.Printf("Failed to find a sidecar in %v: %v\n", scanDir, err)
			os.Exit(1)
		}
		sidecarPath = found
		fmt.Printf("Using sidecar: %v\n", sidecarPath)
	}

	listener := &consoleListener{done: make(chan bool)}
	s := session.New(session.Deps{
		FS:    fs,
		Codec: codec,
		TS:    &timestamper.UnixTimeNowStamper{},
		IDGen: &idgen.IDGen{},
		Log:   log,
	}, cfg, listener)

	if err := s.Run(root, sidecarPath, outPath); err != nil {
		fmt.Printf("Failed to start restitch: %v\n", err)
		os.Exit(1)
	}

	<-listener.done

	if listener.err != nil {
		fmt.Printf("Restitch FAILED: %v\n", listener.err)
		os.Exit(1)
	}
	if listener.result == nil {
		fmt.Println("Restitch cancelled")
		os.Exit(1)
	}

	result := listener.result
	fmt.Printf("\nWrote %v (%v)\n", result.OutputPath, result.ProcessingTime)
	fmt.Printf("Canvas MD5: %v\n", result.CanvasMD5)
	fmt.Println("Per-region provenance:")
	for _, q := range quadrant.All() {
		if prov, ok := result.PerRegionProvenance[q]; ok {
			fmt.Printf("  %-12v (%v): %v\n", q.Label(), q, prov)
		}
	}
	counts := result.ProvenanceCounts()
	fmt.Printf("Regions: %v found, %v placeholder, %v resized\n",
		counts[session.ProvenanceFound], counts[session.ProvenancePlaceholder], counts[session.ProvenanceResized])
	for _, mismatch := range result.SizeMismatches {
		fmt.Printf("  NOTE: %v chip was %vx%v, resized to %vx%v\n", mismatch.RegionID,
			mismatch.FoundDimensions.Width, mismatch.FoundDimensions.Height,
			mismatch.TargetDimensions.Width, mismatch.TargetDimensions.Height)
	}
}
