package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/truck-parking-mcp/internal/classify"
	"github.com/ironsheep/truck-parking-mcp/internal/detection"
	"github.com/ironsheep/truck-parking-mcp/internal/estimate"
	"github.com/ironsheep/truck-parking-mcp/internal/geo"
	"github.com/ironsheep/truck-parking-mcp/internal/imaging"
	"github.com/ironsheep/truck-parking-mcp/internal/pipeline"
	"github.com/ironsheep/truck-parking-mcp/internal/tiles"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "parking_detect_spaces").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Geometry
	case "parking_bounding_box":
		return s.handleBoundingBox(args)
	case "parking_polygon_area":
		return s.handlePolygonArea(args)

	// Imagery
	case "parking_fetch_tile":
		return s.handleFetchTile(ctx, args)

	// Detection
	case "parking_detect_spaces":
		return s.handleDetectSpaces(ctx, args)
	case "parking_detect_orientation":
		return s.handleDetectOrientation(ctx, args)

	// Estimation
	case "parking_estimate_grid":
		return s.handleEstimateGrid(args)
	case "parking_classify_space":
		return s.handleClassifySpace(args)

	// Pipeline
	case "parking_analyze_facility":
		return s.handleAnalyzeFacility(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// boundaryPoints converts [lon, lat] pairs and validates them.
func boundaryPoints(pairs [][2]float64) ([]geo.Point, error) {
	points := make([]geo.Point, 0, len(pairs))
	for _, c := range pairs {
		p := geo.Point{Lon: c[0], Lat: c[1]}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if n := geo.DistinctCount(points); n < 3 {
		return nil, fmt.Errorf("boundary with %d distinct points: %w", n, geo.ErrDegenerateGeometry)
	}
	return points, nil
}

// === Geometry Handlers ===

type boundingBoxArgs struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	WidthM  float64 `json:"width_m"`
	HeightM float64 `json:"height_m"`
}

type boundingBoxResult struct {
	BBox    geo.BoundingBox `json:"bbox"`
	Center  geo.Point       `json:"center"`
	WidthM  float64         `json:"width_m"`
	HeightM float64         `json:"height_m"`
	WMSURL  string          `json:"wms_url"`
}

func (s *Server) handleBoundingBox(args json.RawMessage) (interface{}, error) {
	var a boundingBoxArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg := s.c.Fetcher.Config()
	if a.WidthM == 0 {
		a.WidthM = cfg.CoverageM
	}
	if a.HeightM == 0 {
		a.HeightM = a.WidthM
	}

	center := geo.Point{Lat: a.Lat, Lon: a.Lon}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	bbox, err := geo.NewBoundingBox(center, a.WidthM, a.HeightM)
	if err != nil {
		return nil, err
	}

	return boundingBoxResult{
		BBox:    bbox,
		Center:  center,
		WidthM:  a.WidthM,
		HeightM: a.HeightM,
		WMSURL:  s.c.Fetcher.URL(tiles.Request{BBox: bbox, Width: cfg.Width, Height: cfg.Height}),
	}, nil
}

type polygonArgs struct {
	Boundary [][2]float64 `json:"boundary"`
}

type polygonAreaResult struct {
	AreaM2   float64         `json:"area_m2"`
	Centroid geo.Point       `json:"centroid"`
	BBox     geo.BoundingBox `json:"bbox"`
	// Grid capacity of the outline for each footprint, before any
	// advertised capacity is taken into account.
	TruckCapacity int `json:"truck_capacity"`
	VanCapacity   int `json:"van_capacity"`
}

func (s *Server) handlePolygonArea(args json.RawMessage) (interface{}, error) {
	var a polygonArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	points, err := boundaryPoints(a.Boundary)
	if err != nil {
		return nil, err
	}
	bbox, err := geo.BoundsOf(points)
	if err != nil {
		return nil, err
	}
	centroid := geo.Centroid(points)
	area := geo.PolygonAreaM2(points, centroid.Lat)

	g := s.c.Grid
	return polygonAreaResult{
		AreaM2:        round2(area),
		Centroid:      centroid,
		BBox:          bbox,
		TruckCapacity: g.Capacity(0, 0, 1, area, g.Footprint(estimate.KindTruck)),
		VanCapacity:   g.Capacity(0, 0, 1, area, g.Footprint(estimate.KindVan)),
	}, nil
}

// === Imagery Handlers ===

type fetchTileArgs struct {
	Lat      float64      `json:"lat"`
	Lon      float64      `json:"lon"`
	Boundary [][2]float64 `json:"boundary"`
	SavePath string       `json:"save_path"`
}

type fetchTileResult struct {
	BBox       geo.BoundingBox `json:"bbox"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Resolution float64         `json:"resolution_m_per_px"`
	SavedTo    string          `json:"saved_to,omitempty"`
	Image      string          `json:"image_base64,omitempty"`
}

func (s *Server) handleFetchTile(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a fetchTileArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var (
		tile *tiles.Tile
		err  error
	)
	if len(a.Boundary) > 0 {
		points, perr := boundaryPoints(a.Boundary)
		if perr != nil {
			return nil, perr
		}
		tile, err = s.c.Fetcher.FetchPolygon(ctx, points)
	} else {
		center := geo.Point{Lat: a.Lat, Lon: a.Lon}
		if verr := center.Validate(); verr != nil {
			return nil, verr
		}
		tile, err = s.c.Fetcher.FetchAround(ctx, center)
	}
	if err != nil {
		return nil, err
	}

	res := fetchTileResult{
		BBox:       tile.BBox,
		Width:      tile.Width(),
		Height:     tile.Height(),
		Resolution: tile.Resolution,
	}
	if a.SavePath != "" {
		if err := imaging.SavePNG(a.SavePath, tile.Image); err != nil {
			return nil, err
		}
		res.SavedTo = a.SavePath
		return res, nil
	}
	res.Image, err = imaging.EncodePNGBase64(tile.Image)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// === Detection Handlers ===

type detectSpacesArgs struct {
	Path         string           `json:"path"`
	BBox         *geo.BoundingBox `json:"bbox"`
	Resolution   float64          `json:"resolution"`
	AnnotatePath string           `json:"annotate_path"`
}

type detectedSpace struct {
	Number         int                     `json:"space_number"`
	Pixel          detection.PixelRect     `json:"pixel"`
	WidthM         float64                 `json:"width_m"`
	LengthM        float64                 `json:"length_m"`
	AreaM2         float64                 `json:"area_m2"`
	Classification classify.Classification `json:"classification"`
	Space          *geo.SpacePolygon       `json:"space,omitempty"`
}

type detectSpacesResult struct {
	Count      int             `json:"count"`
	Resolution float64         `json:"resolution_m_per_px"`
	Spaces     []detectedSpace `json:"spaces"`
	SavedTo    string          `json:"annotated_path,omitempty"`
}

func (s *Server) handleDetectSpaces(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectSpacesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := tiles.LoadImage(ctx, s.c.Cache, a.Path)
	if err != nil {
		return nil, err
	}

	res := a.Resolution
	var proj *geo.Projector
	if a.BBox != nil {
		b := img.Bounds()
		p, err := geo.NewProjector(*a.BBox, b.Dx(), b.Dy(), res)
		if err != nil {
			return nil, err
		}
		proj, res = &p, p.Resolution
	}
	if res <= 0 {
		res = s.c.Shapes.Params().Resolution
	}

	rects, err := s.c.Shapes.Detect(img, res)
	if err != nil {
		return nil, err
	}

	out := detectSpacesResult{Resolution: res, Spaces: make([]detectedSpace, 0, len(rects))}
	for _, r := range rects {
		d := detectedSpace{
			Number:  len(out.Spaces) + 1,
			Pixel:   r,
			WidthM:  r.Height * res,
			LengthM: r.Width * res,
		}
		if proj != nil {
			space, err := proj.ProjectRect(r.CenterX, r.CenterY, r.Width, r.Height, r.Angle)
			if err != nil {
				s.log.Debug().Err(err).Msg("skipping unprojectable rect")
				continue
			}
			d.Space = &space
			d.WidthM, d.LengthM = space.WidthM, space.LengthM
		}
		d.AreaM2 = d.WidthM * d.LengthM
		d.Classification = s.c.Classifier.Classify(d.WidthM, d.LengthM, d.AreaM2)
		d.WidthM, d.LengthM, d.AreaM2 = round2(d.WidthM), round2(d.LengthM), round2(d.AreaM2)
		out.Spaces = append(out.Spaces, d)
	}
	out.Count = len(out.Spaces)

	if a.AnnotatePath != "" {
		if err := imaging.SavePNG(a.AnnotatePath, annotateDetections(img, out.Spaces)); err != nil {
			return nil, err
		}
		out.SavedTo = a.AnnotatePath
	}
	return out, nil
}

func annotateDetections(img image.Image, spaces []detectedSpace) *image.RGBA {
	marks := make([]imaging.Mark, 0, len(spaces))
	for _, d := range spaces {
		marks = append(marks, imaging.Mark{
			Corners: d.Pixel.Corners(),
			Color:   d.Classification.RGBA(),
			Label:   fmt.Sprintf("#%d: %.0fx%.0fm", d.Number, d.LengthM, d.WidthM),
		})
	}
	return imaging.Annotate(img, marks, fmt.Sprintf("Detected: %d spaces", len(spaces)))
}

type pathArgs struct {
	Path string `json:"path"`
}

type orientationResult struct {
	Found    bool     `json:"found"`
	Angle    *float64 `json:"angle,omitempty"`
	Segments int      `json:"segments"`
}

func (s *Server) handleDetectOrientation(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := tiles.LoadImage(ctx, s.c.Cache, a.Path)
	if err != nil {
		return nil, err
	}

	res := orientationResult{Segments: len(s.c.Orientation.Segments(img))}
	if angle, ok := s.c.Orientation.Detect(img); ok {
		res.Found, res.Angle = true, &angle
	}
	return res, nil
}

// === Estimation Handlers ===

type estimateGridArgs struct {
	Boundary    [][2]float64 `json:"boundary"`
	Capacity    int          `json:"capacity"`
	VehicleKind string       `json:"vehicle_kind"`
	Rotation    *float64     `json:"rotation"`
}

type estimateGridResult struct {
	Capacity  int                        `json:"capacity"`
	Count     int                        `json:"count"`
	Footprint estimate.Footprint         `json:"footprint"`
	AreaM2    float64                    `json:"area_m2"`
	Spaces    []pipeline.ClassifiedSpace `json:"spaces"`
}

func (s *Server) handleEstimateGrid(args json.RawMessage) (interface{}, error) {
	var a estimateGridArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	points, err := boundaryPoints(a.Boundary)
	if err != nil {
		return nil, err
	}

	g := s.c.Grid
	fp := g.Footprint(a.VehicleKind)
	area := geo.PolygonAreaM2(points, geo.Centroid(points).Lat)
	capacity := g.Capacity(a.Capacity, 0, 1, area, fp)

	spaces, err := g.Estimate(points, capacity, fp, a.Rotation)
	if err != nil {
		return nil, err
	}

	out := estimateGridResult{
		Capacity:  capacity,
		Count:     len(spaces),
		Footprint: fp,
		AreaM2:    round2(area),
		Spaces:    make([]pipeline.ClassifiedSpace, 0, len(spaces)),
	}
	for i, sp := range spaces {
		out.Spaces = append(out.Spaces, pipeline.ClassifiedSpace{
			Number:         i + 1,
			Space:          sp,
			Classification: s.c.Classifier.Classify(sp.WidthM, sp.LengthM, sp.AreaM2),
		})
	}
	return out, nil
}

type classifySpaceArgs struct {
	WidthM  float64 `json:"width_m"`
	LengthM float64 `json:"length_m"`
	AreaM2  float64 `json:"area_m2"`
}

func (s *Server) handleClassifySpace(args json.RawMessage) (interface{}, error) {
	var a classifySpaceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.WidthM <= 0 || a.LengthM <= 0 {
		return nil, errors.New("width_m and length_m must be positive")
	}
	if a.AreaM2 == 0 {
		a.AreaM2 = a.WidthM * a.LengthM
	}
	return s.c.Classifier.Classify(a.WidthM, a.LengthM, a.AreaM2), nil
}

// === Pipeline Handlers ===

type analyzeFacilityArgs struct {
	pipeline.Facility
	AnnotatePath string `json:"-"`
}

func (a *analyzeFacilityArgs) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &a.Facility); err != nil {
		return err
	}
	var extra struct {
		AnnotatePath string `json:"annotate_path"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	a.AnnotatePath = extra.AnnotatePath
	return nil
}

type analyzeFacilityResult struct {
	pipeline.FacilityRecord
	SavedTo string `json:"annotated_path,omitempty"`
}

func (s *Server) handleAnalyzeFacility(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analyzeFacilityArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.Facility.Validate(); err != nil {
		return nil, err
	}

	rec := s.analyzer.Analyze(s.log.WithContext(ctx), a.Facility)
	out := analyzeFacilityResult{FacilityRecord: rec}
	if a.AnnotatePath != "" && rec.Annotated != nil {
		if err := imaging.SavePNG(a.AnnotatePath, rec.Annotated); err != nil {
			return nil, err
		}
		out.SavedTo = a.AnnotatePath
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
