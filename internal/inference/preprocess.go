// internal/inference/preprocess.go
package inference

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
)

// ImageNet channel statistics the classifier was trained with.
var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// LoadImage decodes a JPEG or PNG image from disk.
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// Preprocess converts an image into the normalized CHW float32 layout the
// classifier expects: resize the short side keeping the stock 256/224
// headroom over the crop edge, center-crop to edge x edge, then normalize
// each channel with the ImageNet mean and std.
func Preprocess(img image.Image, edge int) []float32 {
	resizeTarget := uint(edge * 8 / 7)
	bounds := img.Bounds()
	var resized image.Image
	if bounds.Dx() < bounds.Dy() {
		resized = resize.Resize(resizeTarget, 0, img, resize.Lanczos3)
	} else {
		resized = resize.Resize(0, resizeTarget, img, resize.Lanczos3)
	}
	return chwTensor(resized, edge)
}

func chwTensor(img image.Image, edge int) []float32 {
	bounds := img.Bounds()
	offsetX := bounds.Min.X + (bounds.Dx()-edge)/2
	offsetY := bounds.Min.Y + (bounds.Dy()-edge)/2

	plane := edge * edge
	data := make([]float32, 3*plane)
	for y := 0; y < edge; y++ {
		for x := 0; x < edge; x++ {
			r, g, b, _ := img.At(offsetX+x, offsetY+y).RGBA()
			idx := y*edge + x
			data[idx] = (float32(r)/65535.0 - imagenetMean[0]) / imagenetStd[0]
			data[plane+idx] = (float32(g)/65535.0 - imagenetMean[1]) / imagenetStd[1]
			data[2*plane+idx] = (float32(b)/65535.0 - imagenetMean[2]) / imagenetStd[2]
		}
	}
	return data
}
