package raster

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
	_ "github.com/google/tiff/geotiff"
	"github.com/maypok86/otter/v2"
	"golang.org/x/image/tiff/lzw"
)

var errShortRead = errors.New("short read")

// A blockCoord addresses one tiled block within a GeoTIFF.
type blockCoord struct {
	C int // Column.
	R int // Row.
}

// A GeoTIFFSource is an open GeoTIFF file from which Grids are read. It
// supports single-band tiled float32 images with LZW compression. Decoded
// blocks are cached, so repeated windowed reads of the same region are
// cheap.
type GeoTIFFSource struct {
	file                       *os.File
	imageWidth                 int
	imageLength                int
	blockWidth                 int
	blockLength                int
	blocksAcross               int
	blocksDown                 int
	blockOffsets               []uint64
	blockByteCounts            []uint64
	smallestBlockByteCount     uint64
	blockSampleCount           int
	blockByteCountUncompressed int
	blockCacheSizeBytes        int
	blockSamplesCache          *otter.Cache[blockCoord, []float32]
	emptyBlockBytes            []byte
	extent                     Extent
	xRes                       float64
	yRes                       float64
	noData                     float32
	epsg                       int
}

// A GeoTIFFSourceOption sets an option on a GeoTIFFSource.
type GeoTIFFSourceOption func(*GeoTIFFSource)

// WithBlockCacheSize sets the size in bytes of the decoded block cache.
func WithBlockCacheSize(blockCacheSizeBytes int) GeoTIFFSourceOption {
	return func(s *GeoTIFFSource) {
		s.blockCacheSizeBytes = blockCacheSizeBytes
	}
}

// A geoTIFFIFD is a struct into which github.com/google/tiff can unmarshal
// an IFD.
type geoTIFFIFD struct {
	ImageWidth                uint16    `tiff:"field,tag=256"`
	ImageLength               uint16    `tiff:"field,tag=257"`
	BitsPerSample             uint16    `tiff:"field,tag=258"`
	Compression               uint16    `tiff:"field,tag=259"`
	PhotometricInterpretation uint16    `tiff:"field,tag=262"`
	SamplesPerPixel           uint16    `tiff:"field,tag=277"`
	PlanarConfiguration       uint16    `tiff:"field,tag=284"`
	Predictor                 uint16    `tiff:"field,tag=317"`
	TileWidth                 uint16    `tiff:"field,tag=322"`
	TileLength                uint16    `tiff:"field,tag=323"`
	TileOffsets               []uint64  `tiff:"field,tag=324"`
	TileByteCounts            []uint64  `tiff:"field,tag=325"`
	SampleFormat              uint16    `tiff:"field,tag=339"`
	ModelPixelScaleTag        []float64 `tiff:"field,tag=33550"`
	ModelTiepointTag          []float64 `tiff:"field,tag=33922"`
	GeoKeyDirectoryTag        []uint16  `tiff:"field,tag=34735"`
	GDALNoData                string    `tiff:"field,tag=42113"`
}

// OpenGeoTIFF opens the GeoTIFF at filename in fsys.
func OpenGeoTIFF(fsys fs.FS, filename string, options ...GeoTIFFSourceOption) (*GeoTIFFSource, error) {
	var err error
	ok := false

	s := &GeoTIFFSource{
		blockCacheSizeBytes: 128 << 20, // 128MB.
		noData:              float32(math.NaN()),
	}
	for _, option := range options {
		option(s)
	}

	file, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	if _, ok := file.(*os.File); !ok {
		return nil, errors.ErrUnsupported
	}
	s.file = file.(*os.File)
	defer func() {
		if !ok {
			_ = s.file.Close()
		}
	}()

	tiffTIFF, err := tiff.Parse(s.file, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, err
	}

	if len(tiffTIFF.IFDs()) != 1 {
		return nil, fmt.Errorf("found %d IFDs, expected 1", len(tiffTIFF.IFDs()))
	}

	var ifd geoTIFFIFD
	if err := tiff.UnmarshalIFD(tiffTIFF.IFDs()[0], &ifd); err != nil {
		return nil, err
	}

	if ifd.BitsPerSample != 32 ||
		ifd.Compression != 5 ||
		ifd.SamplesPerPixel != 1 ||
		ifd.PlanarConfiguration != 1 ||
		(ifd.Predictor != 0 && ifd.Predictor != 1) ||
		ifd.SampleFormat != 3 ||
		ifd.TileWidth == 0 || ifd.TileLength == 0 ||
		len(ifd.ModelPixelScaleTag) != 3 || ifd.ModelPixelScaleTag[2] != 0 ||
		len(ifd.ModelTiepointTag) != 6 || ifd.ModelTiepointTag[2] != 0 || ifd.ModelTiepointTag[5] != 0 {
		return nil, errors.ErrUnsupported
	}

	s.imageWidth = int(ifd.ImageWidth)
	s.imageLength = int(ifd.ImageLength)
	s.blockWidth = int(ifd.TileWidth)
	s.blockLength = int(ifd.TileLength)
	s.blocksAcross = (s.imageWidth + s.blockWidth - 1) / s.blockWidth
	s.blocksDown = (s.imageLength + s.blockLength - 1) / s.blockLength
	blocksPerImage := s.blocksAcross * s.blocksDown
	if len(ifd.TileByteCounts) != blocksPerImage || len(ifd.TileOffsets) != blocksPerImage {
		return nil, errors.New("incorrect number of tile byte counts or offsets")
	}
	s.blockOffsets = ifd.TileOffsets
	s.blockByteCounts = ifd.TileByteCounts
	s.smallestBlockByteCount = ifd.TileByteCounts[0]
	for _, blockByteCount := range ifd.TileByteCounts[1:] {
		if blockByteCount < s.smallestBlockByteCount {
			s.smallestBlockByteCount = blockByteCount
		}
	}
	s.blockSampleCount = s.blockWidth * s.blockLength
	s.blockByteCountUncompressed = s.blockSampleCount * int(ifd.BitsPerSample) / 8

	blockCacheCount := max(s.blockCacheSizeBytes/s.blockByteCountUncompressed, 1)
	s.blockSamplesCache, err = otter.New(&otter.Options[blockCoord, []float32]{
		MaximumSize: blockCacheCount,
	})
	if err != nil {
		return nil, err
	}

	// The model transform must be north-up with no rotation: a pixel scale
	// and a single tiepoint anchoring raster origin (0, 0).
	s.xRes = ifd.ModelPixelScaleTag[0]
	s.yRes = ifd.ModelPixelScaleTag[1]
	if s.xRes <= 0 || s.yRes <= 0 {
		return nil, errors.ErrUnsupported
	}
	if i, j, k := ifd.ModelTiepointTag[0], ifd.ModelTiepointTag[1], ifd.ModelTiepointTag[2]; i != 0 || j != 0 || k != 0 {
		return nil, errors.ErrUnsupported
	}
	originX, originY := ifd.ModelTiepointTag[3], ifd.ModelTiepointTag[4]
	s.extent = Extent{
		XMin: originX,
		XMax: originX + float64(s.imageWidth)*s.xRes,
		YMin: originY - float64(s.imageLength)*s.yRes,
		YMax: originY,
	}

	if gdalNoData := strings.TrimSpace(ifd.GDALNoData); gdalNoData != "" {
		noData, err := strconv.ParseFloat(gdalNoData, 32)
		if err != nil {
			return nil, err
		}
		s.noData = float32(noData)
	}

	if len(ifd.GeoKeyDirectoryTag) != 0 {
		params, err := parseGeoKeyParams(ifd.GeoKeyDirectoryTag)
		if err != nil {
			return nil, err
		}
		s.epsg = epsgFromGeoKeys(params)
	}

	ok = true
	return s, nil
}

func (s *GeoTIFFSource) Close() error {
	return s.file.Close()
}

// Extent returns the extent covered by s.
func (s *GeoTIFFSource) Extent() Extent {
	return s.extent
}

// Resolution returns the coordinate-space width and height of one cell.
func (s *GeoTIFFSource) Resolution() (float64, float64) {
	return s.xRes, s.yRes
}

// EPSG returns the EPSG code of s's coordinate reference system, or 0 if
// the file does not record one.
func (s *GeoTIFFSource) EPSG() int {
	return s.epsg
}

// Grid reads the whole of s into a Grid.
func (s *GeoTIFFSource) Grid(ctx context.Context) (*Grid, error) {
	return s.Window(ctx, s.extent)
}

// Window reads the sub-grid of s covering target, snapping the overlap of
// target and s's extent outward to cell boundaries exactly as [Grid.Crop]
// does. Only the blocks overlapping the window are read and decoded. It
// returns ErrNoOverlap if target is disjoint from s's extent.
func (s *GeoTIFFSource) Window(ctx context.Context, target Extent) (*Grid, error) {
	effective, ok := s.extent.Intersect(target)
	if !ok {
		return nil, fmt.Errorf("%w: %v and %v", ErrNoOverlap, s.extent, target)
	}

	colMin := max(int(math.Floor((effective.XMin-s.extent.XMin)/s.xRes)), 0)
	colMax := min(int(math.Ceil((effective.XMax-s.extent.XMin)/s.xRes)), s.imageWidth)
	rowMin := max(int(math.Floor((s.extent.YMax-effective.YMax)/s.yRes)), 0)
	rowMax := min(int(math.Ceil((s.extent.YMax-effective.YMin)/s.yRes)), s.imageLength)

	rows := rowMax - rowMin
	cols := colMax - colMin
	cells := make([]float64, rows*cols)
	for i := range cells {
		cells[i] = NoData
	}

	for blockRow := rowMin / s.blockLength; blockRow <= (rowMax-1)/s.blockLength; blockRow++ {
		for blockCol := colMin / s.blockWidth; blockCol <= (colMax-1)/s.blockWidth; blockCol++ {
			blockSamples, err := s.getBlockSamplesCached(ctx, blockCoord{C: blockCol, R: blockRow})
			switch {
			case errors.Is(err, otter.ErrNotFound):
				// Empty block, cells remain NoData.
				continue
			case err != nil:
				return nil, err
			}
			rowLo := max(rowMin, blockRow*s.blockLength)
			rowHi := min(rowMax, (blockRow+1)*s.blockLength)
			colLo := max(colMin, blockCol*s.blockWidth)
			colHi := min(colMax, (blockCol+1)*s.blockWidth)
			for row := rowLo; row < rowHi; row++ {
				for col := colLo; col < colHi; col++ {
					sample := blockSamples[(row%s.blockLength)*s.blockWidth+col%s.blockWidth]
					if sample == s.noData || math.IsNaN(float64(sample)) {
						continue
					}
					cells[(row-rowMin)*cols+(col-colMin)] = float64(sample)
				}
			}
		}
	}

	extent := Extent{
		XMin: s.extent.XMin + float64(colMin)*s.xRes,
		XMax: s.extent.XMin + float64(colMax)*s.xRes,
		YMin: s.extent.YMax - float64(rowMax)*s.yRes,
		YMax: s.extent.YMax - float64(rowMin)*s.yRes,
	}
	if colMax == s.imageWidth {
		extent.XMax = s.extent.XMax
	}
	if rowMax == s.imageLength {
		extent.YMin = s.extent.YMin
	}

	return &Grid{
		rows:   rows,
		cols:   cols,
		extent: extent,
		xRes:   s.xRes,
		yRes:   s.yRes,
		cells:  cells,
	}, nil
}

// getCompressedBlockData returns the compressed data for the block at
// coord. If the block is known to be empty, it returns the error
// otter.ErrNotFound.
func (s *GeoTIFFSource) getCompressedBlockData(coord blockCoord) ([]byte, error) {
	blockIndex := coord.C + s.blocksAcross*coord.R
	blockByteCount := s.blockByteCounts[blockIndex]
	blockOffset := s.blockOffsets[blockIndex]
	compressedData := make([]byte, blockByteCount)
	switch n, err := s.file.ReadAt(compressedData, int64(blockOffset)); {
	case err != nil:
		return nil, err
	case n != int(blockByteCount):
		return nil, errShortRead
	case s.emptyBlockBytes != nil && bytes.Equal(compressedData, s.emptyBlockBytes):
		return nil, otter.ErrNotFound
	default:
		return compressedData, nil
	}
}

// decompressBlockData decompresses the block data in compressedData.
func (s *GeoTIFFSource) decompressBlockData(compressedData []byte) ([]byte, error) {
	blockData := make([]byte, s.blockByteCountUncompressed)
	r := lzw.NewReader(bytes.NewReader(compressedData), lzw.MSB, 8)
	for bytesRead := 0; bytesRead < s.blockByteCountUncompressed; {
		n, err := r.Read(blockData[bytesRead:])
		if err != nil {
			return nil, err
		}
		bytesRead += n
	}
	return blockData, nil
}

// decodeBlockData decodes blockData into float32 samples.
func (s *GeoTIFFSource) decodeBlockData(blockData []byte) []float32 {
	blockSamples := make([]float32, s.blockSampleCount)
	for i := range s.blockSampleCount {
		b := binary.LittleEndian.Uint32(blockData[i*4 : (i+1)*4])
		blockSamples[i] = math.Float32frombits(b)
	}
	return blockSamples
}

// getBlockSamples returns the samples of the block at coord.
func (s *GeoTIFFSource) getBlockSamples(ctx context.Context, coord blockCoord) ([]float32, error) {
	compressedBlockData, err := s.getCompressedBlockData(coord)
	if err != nil {
		return nil, err
	}

	blockData, err := s.decompressBlockData(compressedBlockData)
	if err != nil {
		return nil, err
	}
	blockSamples := s.decodeBlockData(blockData)

	// If we do not know what an empty block looks like compressed, check to
	// see if this is one, and, if so, use its bytes to detect empty blocks
	// before they are decompressed. We assume that the empty block is the
	// smallest block.
	if s.emptyBlockBytes == nil && !math.IsNaN(float64(s.noData)) && len(compressedBlockData) == int(s.smallestBlockByteCount) {
		isEmptyBlock := true
		for _, sample := range blockSamples {
			if sample != s.noData {
				isEmptyBlock = false
				break
			}
		}
		if isEmptyBlock {
			s.emptyBlockBytes = compressedBlockData
			return nil, otter.ErrNotFound
		}
	}

	return blockSamples, nil
}

// getBlockSamplesCached returns the samples of the block at coord using s's
// cache.
func (s *GeoTIFFSource) getBlockSamplesCached(ctx context.Context, coord blockCoord) ([]float32, error) {
	return s.blockSamplesCache.Get(ctx, coord, otter.LoaderFunc[blockCoord, []float32](s.getBlockSamples))
}
