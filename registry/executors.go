package registry

import (
	"time"

	"github.com/spf13/cast"

	"github.com/channely/datablocks-editor/errs"
	"github.com/channely/datablocks-editor/ioformats"
	"github.com/channely/datablocks-editor/ops"
	"github.com/channely/datablocks-editor/table"
)

func ok() ValidationResult { return ValidationResult{Valid: true} }

func invalid(field, message, code string) ValidationResult {
	return ValidationResult{Valid: false, Errors: []ValidationError{{Field: field, Message: message, Code: code}}}
}

func success(t *table.Table, started time.Time, meta map[string]any) ExecutionResult {
	return ExecutionResult{Success: true, Output: t, ExecutionTime: time.Since(started), Metadata: meta}
}

// ExampleDataExecutor emits the hard-coded named sample // describes, the employees table used throughout worked
// scenarios.
type ExampleDataExecutor struct{}

func (ExampleDataExecutor) Validate(ctx ExecutionContext) ValidationResult { return ok() }

func (ExampleDataExecutor) Execute(ctx ExecutionContext) (ExecutionResult, error) {
	started := time.Now()
	name := cfgString(ctx.Config, "dataset", "employees")
	t, err := exampleDataset(name)
	if err != nil {
		return ExecutionResult{}, err
	}
	return success(t, started, map[string]any{"dataset": name}), nil
}

func exampleDataset(name string) (*table.Table, error) {
	switch name {
	case "employees":
		return table.FromRows(
			[]string{"name", "age", "city", "salary"},
			[][]any{
				{"Alice", 30.0, "NY", 75000.0},
				{"Bob", 25.0, "LA", 65000.0},
				{"Charlie", 35.0, "Chicago", 80000.0},
				{"Diana", 28.0, "NY", 70000.0},
				{"Eve", 32.0, "LA", 85000.0},
			},
		)
	default:
		return nil, errs.ErrValidation.New("unknown example dataset %q", name)
	}
}

// FileInputExecutor delegates to the ioformats parsers for CSV/JSON.
// Excel files are not parsed.
type FileInputExecutor struct{}

func (FileInputExecutor) Validate(ctx ExecutionContext) ValidationResult {
	if _, ok := ctx.Config["content"]; !ok {
		return invalid("content", "file-input requires file content", "REQUIRED")
	}
	return ok()
}

func (FileInputExecutor) Execute(ctx ExecutionContext) (ExecutionResult, error) {
	started := time.Now()
	content := cfgString(ctx.Config, "content", "")
	format := cfgString(ctx.Config, "format", "csv")

	var (
		t   *table.Table
		err error
	)
	switch format {
	case "json":
		t, err = ioformats.ParseJSON([]byte(content))
	default:
		opts := ioformats.DefaultCSVOptions()
		opts.HasHeader = cfgBool(ctx.Config, "hasHeader", true)
		if d := cfgString(ctx.Config, "delimiter", ""); d != "" {
			opts.Delimiter = rune(d[0])
		}
		t, err = ioformats.ParseCSV([]byte(content), opts)
	}
	if err != nil {
		return ExecutionResult{}, err
	}
	if max := cfgInt(ctx.Config, "maxRows", 0); max > 0 && t.RowCount() > max {
		t = ops.Slice(t, 0, &max)
	}
	return success(t, started, map[string]any{"format": format}), nil
}

// PasteInputExecutor parses pasted text per its configured subtype.
type PasteInputExecutor struct{}

func (PasteInputExecutor) Validate(ctx ExecutionContext) ValidationResult {
	if _, ok := ctx.Config["text"]; !ok {
		return invalid("text", "paste-input requires pasted text", "REQUIRED")
	}
	return ok()
}

func (PasteInputExecutor) Execute(ctx ExecutionContext) (ExecutionResult, error) {
	started := time.Now()
	text := cfgString(ctx.Config, "text", "")
	subtype := ioformats.PasteSubtype(cfgString(ctx.Config, "subtype", "table"))
	t, err := ioformats.ParsePaste(text, subtype)
	if err != nil {
		return ExecutionResult{}, err
	}
	return success(t, started, map[string]any{"subtype": string(subtype)}), nil
}

// HTTPRequestExecutor issues an HTTP request and maps the response to
// a Table, /4.G.
type HTTPRequestExecutor struct{}

func (HTTPRequestExecutor) Validate(ctx ExecutionContext) ValidationResult {
	if _, err := requireString(ctx.Config, "url"); err != nil {
		return invalid("url", "http-request requires a url", "REQUIRED")
	}
	return ok()
}

func (HTTPRequestExecutor) Execute(ctx ExecutionContext) (ExecutionResult, error) {
	started := time.Now()
	url, err := requireString(ctx.Config, "url")
	if err != nil {
		return ExecutionResult{}, err
	}
	spec := ioformats.HTTPRequestSpec{
		URL:     url,
		Method:  cfgString(ctx.Config, "method", "GET"),
		Headers: cfgStringMap(ctx.Config, "headers"),
		Body:    cfgString(ctx.Config, "body", ""),
		Timeout: time.Duration(cfgInt(ctx.Config, "timeoutMs", 30000)) * time.Millisecond,
	}
	res, err := ioformats.FetchHTTP(execContext(ctx), spec)
	if err != nil {
		return ExecutionResult{}, err
	}
	meta := map[string]any{
		"status":      res.Status,
		"contentType": res.ContentType,
		"size":        res.Size,
		"elapsedMs":   res.Elapsed.Milliseconds(),
		"method":      res.Method,
		"url":         res.URL,
	}
	return success(res.Table, started, meta), nil
}

// FilterExecutor applies a predicate tree built from config.
type FilterExecutor struct{}

func (FilterExecutor) Validate(ctx ExecutionContext) ValidationResult {
	if _, ok := ctx.Config["predicate"]; !ok {
		return invalid("predicate", "filter requires a predicate", "REQUIRED")
	}
	return ok()
}

func (FilterExecutor) Execute(ctx ExecutionContext) (ExecutionResult, error) {
	started := time.Now()
	in, err := singleUpstream(ctx)
	if err != nil {
		return ExecutionResult{}, err
	}
	raw, _ := ctx.Config["predicate"].(map[string]any)
	pred := decodePredicate(raw)
	out := ops.Filter(in, pred)
	return success(out, started, nil), nil
}

func decodePredicate(raw map[string]any) ops.Predicate {
	if raw == nil {
		return ops.Predicate{}
	}
	if childrenRaw, ok := raw["children"].([]any); ok {
		var children []ops.Predicate
		for _, c := range childrenRaw {
			if cm, ok := c.(map[string]any); ok {
				children = append(children, decodePredicate(cm))
			}
		}
		return ops.Predicate{Bool: ops.BoolOp(cast.ToString(raw["bool"])), Children: children}
	}
	p := ops.Predicate{
		Column: cast.ToString(raw["column"]),
		Op:     ops.CompareOp(cast.ToString(raw["op"])),
		Value:  raw["value"],
	}
	if values, ok := raw["values"].([]any); ok {
		p.Values = values
	}
	return p
}

// SortExecutor orders rows by the configured sort keys.
type SortExecutor struct{}

func (SortExecutor) Validate(ctx ExecutionContext) ValidationResult {
	if _, ok := ctx.Config["keys"]; !ok {
		return invalid("keys", "sort requires at least one sort key", "REQUIRED")
	}
	return ok()
}

func (SortExecutor) Execute(ctx ExecutionContext) (ExecutionResult, error) {
	started := time.Now()
	in, err := singleUpstream(ctx)
	if err != nil {
		return ExecutionResult{}, err
	}
	keysRaw, _ := ctx.Config["keys"].([]any)
	var keys []ops.SortKey
	for _, kr := range keysRaw {
		km, ok := kr.(map[string]any)
		if !ok {
			continue
		}
		keys = append(keys, ops.SortKey{
			Column:    cast.ToString(km["column"]),
			Direction: ops.Direction(cast.ToString(km["direction"])),
		})
	}
	out := ops.Sort(in, keys)
	return success(out, started, nil), nil
}

// GroupExecutor builds a group-by/aggregation from config.
type GroupExecutor struct{}

func (GroupExecutor) Validate(ctx ExecutionContext) ValidationResult {
	if _, ok := ctx.Config["aggregations"]; !ok {
		return invalid("aggregations", "group requires at least one aggregation", "REQUIRED")
	}
	return ok()
}

func (GroupExecutor) Execute(ctx ExecutionContext) (ExecutionResult, error) {
	started := time.Now()
	in, err := singleUpstream(ctx)
	if err != nil {
		return ExecutionResult{}, err
	}
	var groupCols []string
	if gc, ok := ctx.Config["groupColumns"].([]any); ok {
		for _, c := range gc {
			groupCols = append(groupCols, cast.ToString(c))
		}
	}
	var aggs []ops.Aggregation
	if ar, ok := ctx.Config["aggregations"].([]any); ok {
		for _, a := range ar {
			am, ok := a.(map[string]any)
			if !ok {
				continue
			}
			aggs = append(aggs, ops.Aggregation{
				Func:   ops.AggFunc(cast.ToString(am["func"])),
				Column: cast.ToString(am["column"]),
				Alias:  cast.ToString(am["alias"]),
			})
		}
	}
	out, err := ops.Group(in, ops.GroupSpec{GroupColumns: groupCols, Aggregations: aggs})
	if err != nil {
		return ExecutionResult{}, err
	}
	return success(out, started, nil), nil
}

// ChartSpec names the chart configuration fields. ChartExecutor reads
// them from its config map, validates the axis selections, and produces
// a chart description consumed by external rendering.
type ChartSpec struct {
	Type    string `json:"type"`
	XColumn string `json:"xColumn"`
	YColumn string `json:"yColumn"`
}

type ChartExecutor struct{}

func (ChartExecutor) Validate(ctx ExecutionContext) ValidationResult {
	var fieldErrs []ValidationError
	if cfgString(ctx.Config, "xColumn", "") == "" {
		fieldErrs = append(fieldErrs, ValidationError{Field: "xColumn", Message: "chart requires an x-axis column", Code: "REQUIRED"})
	}
	if cfgString(ctx.Config, "yColumn", "") == "" {
		fieldErrs = append(fieldErrs, ValidationError{Field: "yColumn", Message: "chart requires a y-axis column", Code: "REQUIRED"})
	}
	if len(fieldErrs) > 0 {
		return ValidationResult{Valid: false, Errors: fieldErrs}
	}
	return ok()
}

func (ChartExecutor) Execute(ctx ExecutionContext) (ExecutionResult, error) {
	started := time.Now()
	in, err := singleUpstream(ctx)
	if err != nil {
		return ExecutionResult{}, err
	}
	xCol := cfgString(ctx.Config, "xColumn", "")
	yCol := cfgString(ctx.Config, "yColumn", "")
	if !in.HasColumn(xCol) || !in.HasColumn(yCol) {
		return ExecutionResult{}, errs.ErrValidation.New("chart: column not found in input table")
	}
	xi, _ := in.ColumnIndex(xCol)
	yi, _ := in.ColumnIndex(yCol)
	points := make([]map[string]any, in.RowCount())
	for i, row := range in.Rows {
		points[i] = map[string]any{"x": row[xi].Value(), "y": row[yi].Value()}
	}
	desc := map[string]any{
		"type":   cfgString(ctx.Config, "type", "bar"),
		"x":      xCol,
		"y":      yCol,
		"points": points,
	}
	return ExecutionResult{
		Success:       true,
		ChartOutput:   desc,
		ExecutionTime: time.Since(started),
	}, nil
}
