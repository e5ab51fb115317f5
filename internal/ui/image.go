package ui

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

var errNotDataURI = errors.New("not a base64 data URI")

// imageDataURI encodes a picked image file for storage in a shape record and
// reports its pixel size.
func imageDataURI(data []byte) (src string, width, height float64, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, fmt.Errorf("decode image: %w", err)
	}
	src = "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(data)
	return src, float64(cfg.Width), float64(cfg.Height), nil
}

func decodeDataURI(src string) ([]byte, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, errNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, errNotDataURI
	}
	return base64.StdEncoding.DecodeString(payload)
}
