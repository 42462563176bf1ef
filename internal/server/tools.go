package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var (
	latProperty = map[string]interface{}{
		"type":        "number",
		"description": "Latitude in WGS84 degrees",
	}
	lonProperty = map[string]interface{}{
		"type":        "number",
		"description": "Longitude in WGS84 degrees",
	}
	boundaryProperty = map[string]interface{}{
		"type":        "array",
		"description": "Facility outline as [lon, lat] pairs, at least 3 distinct points. The ring may be open or closed.",
		"items": map[string]interface{}{
			"type":     "array",
			"items":    map[string]interface{}{"type": "number"},
			"minItems": 2,
			"maxItems": 2,
		},
	}
	pathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to an aerial image file (PNG, JPEG or GIF)",
	}
	bboxProperty = map[string]interface{}{
		"type":        "object",
		"description": "Ground region the image depicts. When given, detections are returned as WGS84 polygons.",
		"properties": map[string]interface{}{
			"min_lat": map[string]interface{}{"type": "number"},
			"min_lon": map[string]interface{}{"type": "number"},
			"max_lat": map[string]interface{}{"type": "number"},
			"max_lon": map[string]interface{}{"type": "number"},
		},
		"required": []string{"min_lat", "min_lon", "max_lat", "max_lon"},
	}
)

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Geometry
		{
			Name:        "parking_bounding_box",
			Description: "Compute the WGS84 bounding box of a ground rectangle centred on a point, and the WMS GetMap URL that would fetch it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"lat": latProperty,
					"lon": lonProperty,
					"width_m": map[string]interface{}{
						"type":        "number",
						"description": "East-west extent in meters. Default: configured tile coverage",
					},
					"height_m": map[string]interface{}{
						"type":        "number",
						"description": "North-south extent in meters. Default: same as width_m",
					},
				},
				"required": []string{"lat", "lon"},
			},
		},
		{
			Name:        "parking_polygon_area",
			Description: "Approximate ground area, centroid and bounding box of a facility outline. Accurate for outlines spanning a few kilometers.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"boundary": boundaryProperty,
				},
				"required": []string{"boundary"},
			},
		},

		// Imagery
		{
			Name:        "parking_fetch_tile",
			Description: "Fetch an orthophoto tile around a point, or covering a facility outline plus a buffer. Saves the tile when save_path is given, otherwise returns it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"lat":      latProperty,
					"lon":      lonProperty,
					"boundary": boundaryProperty,
					"save_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write the tile to",
					},
				},
			},
		},

		// Detection
		{
			Name:        "parking_detect_spaces",
			Description: "Detect rectangular parking-space shapes in an aerial image. Each detection is classified by vehicle type when the image bbox is known.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"bbox": bboxProperty,
					"resolution": map[string]interface{}{
						"type":        "number",
						"description": "Ground resolution in meters per pixel. Default: derived from bbox, else the configured resolution",
					},
					"annotate_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write a PNG with the detections outlined",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "parking_detect_orientation",
			Description: "Find the dominant parking-row angle in an aerial image from its line segments. Returns found=false when no lines are detected.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Estimation
		{
			Name:        "parking_estimate_grid",
			Description: "Lay a grid of vehicle footprints over a facility outline and return the spaces whose centers fall inside it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"boundary": boundaryProperty,
					"capacity": map[string]interface{}{
						"type":        "integer",
						"description": "Number of spaces to emit. Default: derived from the outline's area",
					},
					"vehicle_kind": map[string]interface{}{
						"type":        "string",
						"description": "Footprint to use",
						"enum":        []string{"truck", "van"},
						"default":     "truck",
					},
					"rotation": map[string]interface{}{
						"type":        "number",
						"description": "Optional grid rotation in degrees",
					},
				},
				"required": []string{"boundary"},
			},
		},
		{
			Name:        "parking_classify_space",
			Description: "Classify a parking space by its dimensions into a vehicle type (car/van, standard, heavy or large truck, LZV) or a parking row.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width_m": map[string]interface{}{
						"type":        "number",
						"description": "Short side in meters",
					},
					"length_m": map[string]interface{}{
						"type":        "number",
						"description": "Long side in meters",
					},
					"area_m2": map[string]interface{}{
						"type":        "number",
						"description": "Area in square meters. Default: width_m * length_m",
					},
				},
				"required": []string{"width_m", "length_m"},
			},
		},

		// Pipeline
		{
			Name:        "parking_analyze_facility",
			Description: "Run the full pipeline for one facility: fetch imagery, detect and classify spaces, and fall back to grid estimation over the outline when nothing is detected.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Facility identifier",
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Facility name",
					},
					"latitude":  latProperty,
					"longitude": lonProperty,
					"boundary":  boundaryProperty,
					"capacity": map[string]interface{}{
						"type":        "integer",
						"description": "Advertised number of spaces, if known",
					},
					"vehicle_kind": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"truck", "van"},
						"default": "truck",
					},
					"annotate_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write the annotated tile to",
					},
				},
				"required": []string{"latitude", "longitude"},
			},
		},
	}
}
