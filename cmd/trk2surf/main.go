package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"trk2surf/internal/models"
	"trk2surf/pkg/config"
	"trk2surf/pkg/mapper"
	"trk2surf/pkg/visualization"
)

// runOptions holds the resolved run parameters after configuration-file
// defaults have been applied to any flags the user did not set.
type runOptions struct {
	Surface   string
	End       string
	Output    string
	Threshold float64
	RefVolume string
	OutDir    string
	Render    bool
}

// applyConfig fills in every option whose flag was not given on the
// command line from the configuration file. setFlags holds the names of
// the explicitly-set flags, so explicit zero values (e.g. -threshold 0)
// survive and a config default can be overridden in either direction.
func applyConfig(opts *runOptions, cfg *config.Config, setFlags map[string]bool) {
	if !setFlags["surface"] {
		opts.Surface = cfg.Processing.Surface
	}
	if !setFlags["end"] {
		opts.End = cfg.Processing.StreamlineEnd
	}
	if !setFlags["output"] {
		opts.Output = cfg.Processing.Output
	}
	if !setFlags["threshold"] {
		opts.Threshold = cfg.Processing.DistanceThreshold
	}
	if !setFlags["ref"] {
		opts.RefVolume = cfg.Alignment.RefVolume
	}
	if !setFlags["out"] {
		opts.OutDir = cfg.Output.Dir
	}
	if !setFlags["render"] {
		opts.Render = cfg.Output.Render
	}
}

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "", "Optional YAML configuration file with default parameters")
	trkFile := flag.String("trk", "", "TrackVis .trk tractography file")
	subjectDir := flag.String("subject", "", "FreeSurfer subject directory")
	surfaceName := flag.String("surface", "", "Surface the endpoints are matched against: white, midgray or pial")
	end := flag.String("end", "", "Streamline ends to use: head, tail or both")
	threshold := flag.Float64("threshold", 0, "Maximum endpoint-to-vertex distance in mm")
	output := flag.String("output", "", "Map type: count or pdf")
	refVolume := flag.String("ref", "", "Reference NIfTI volume for surface-space alignment")
	outDir := flag.String("out", "", "Directory for the per-hemisphere overlay files")
	render := flag.Bool("render", false, "Save quick-look PNG projections of the maps")
	flag.Parse()

	// Load configuration defaults; flags given on the command line win,
	// including explicit zero values like -threshold 0.
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	opts := &runOptions{
		Surface:   *surfaceName,
		End:       *end,
		Output:    *output,
		Threshold: *threshold,
		RefVolume: *refVolume,
		OutDir:    *outDir,
		Render:    *render,
	}
	applyConfig(opts, cfg, setFlags)
	if !cfg.Output.Verbose {
		log.SetLevel(log.WarnLevel)
	}

	// Validate inputs
	if *trkFile == "" || *subjectDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	fmt.Println("================================")
	fmt.Println("TRK2SURF: STREAMLINE ENDPOINT MAPS ON THE CORTICAL SURFACE")
	fmt.Println("================================")

	// Initialize mapping parameters
	params := &mapper.Params{
		TrkFile:           *trkFile,
		SubjectDir:        *subjectDir,
		Surface:           opts.Surface,
		End:               opts.End,
		Output:            opts.Output,
		DistanceThreshold: opts.Threshold,
		RefVolume:         opts.RefVolume,
		OutputDir:         opts.OutDir,
	}

	// Run the endpoint-mapping pipeline
	m := mapper.NewMapper(params)
	if err := m.Process(); err != nil {
		log.Fatalf("Endpoint mapping failed: %v", err)
	}

	// Display the per-hemisphere map statistics
	fmt.Printf("\nEndpoint maps written to: %s\n\n", opts.OutDir)
	fmt.Printf("Map statistics per hemisphere:\n")
	fmt.Printf("==============================\n")
	for _, h := range models.Hemispheres() {
		s := m.GetSummaries()[h]
		fmt.Printf("[%s]\n", h)
		if opts.Output == "count" {
			fmt.Printf("  Retained endpoints: %.0f\n", s.Total)
		} else {
			fmt.Printf("  Map total: %.3f\n", s.Total)
		}
		fmt.Printf("  Vertices with endpoints: %d\n", s.NonzeroVertices)
		if s.PeakVertex >= 0 {
			fmt.Printf("  Peak vertex: %d (value %.4f)\n", s.PeakVertex, s.PeakValue)
		}
		fmt.Printf("  Entropy: %.3f nats\n", s.Entropy)
	}

	// Save quick-look projections if requested
	if opts.Render {
		fmt.Println("\nRendering quick-look projections...")
		for _, h := range models.Hemispheres() {
			mesh := m.GetMeshes()[h]
			vertices := make([]r3.Vec, mesh.VertexCount())
			for i := range vertices {
				vertices[i] = mesh.Vertex(i)
			}

			viewer, err := visualization.NewViewer(vertices, m.GetMaps()[h])
			if err != nil {
				log.Fatalf("Failed to create viewer for %s: %v", h, err)
			}
			prefix := fmt.Sprintf("%s_endpoints", h)
			if err := viewer.SaveProjectionSet(opts.OutDir, prefix); err != nil {
				log.Printf("Warning: Failed to save %s projections: %v", h, err)
			}
		}
		fmt.Println("Projection rendering completed!")
	}
}
