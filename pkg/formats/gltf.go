// Package formats provides parsers for the model interchange formats the pose tools read.
// glTF 2.0 parser for .gltf (JSON) and .glb (binary container) files.
package formats

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// glTF format errors.
var (
	ErrInvalidGLBMagic        = errors.New("invalid GLB magic: expected 'glTF'")
	ErrUnsupportedGLBVersion  = errors.New("unsupported GLB container version")
	ErrUnsupportedGLTFVersion = errors.New("unsupported glTF version")
	ErrTruncatedGLBData       = errors.New("truncated GLB data")
	ErrMissingJSONChunk       = errors.New("GLB missing JSON chunk")
	ErrInvalidBufferURI       = errors.New("invalid buffer URI")
	ErrBufferTooShort         = errors.New("buffer shorter than declared byteLength")
	ErrInvalidAccessor        = errors.New("invalid accessor")
	ErrSparseAccessor         = errors.New("sparse accessors are not supported")
)

// ParseGLTF parses a .gltf or .glb file from disk.
// Relative buffer URIs resolve against the file's directory.
func ParseGLTF(path string) (*GLTF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading glTF file: %w", err)
	}
	return ParseGLTFBytes(data, filepath.Dir(path))
}

// ParseGLTFBytes parses glTF JSON or GLB data. The container is detected from the magic bytes.
func ParseGLTFBytes(data []byte, baseDir string) (*GLTF, error) {
	var (
		jsonData []byte
		binChunk []byte
		err      error
	)

	if len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic {
		jsonData, binChunk, err = splitGLB(data)
		if err != nil {
			return nil, err
		}
	} else {
		jsonData = data
	}

	doc := &GLTF{BaseDir: baseDir}
	if err := json.Unmarshal(jsonData, doc); err != nil {
		return nil, fmt.Errorf("decoding glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGLTFVersion, doc.Asset.Version)
	}

	if err := doc.loadBuffers(binChunk); err != nil {
		return nil, err
	}
	return doc, nil
}

// splitGLB returns the JSON chunk and the optional BIN chunk of a GLB container.
func splitGLB(data []byte) ([]byte, []byte, error) {
	if len(data) < 12 {
		return nil, nil, ErrTruncatedGLBData
	}
	if binary.LittleEndian.Uint32(data[0:4]) != glbMagic {
		return nil, nil, ErrInvalidGLBMagic
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != glbVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedGLBVersion, v)
	}

	total := int(binary.LittleEndian.Uint32(data[8:12]))
	if total > len(data) {
		return nil, nil, ErrTruncatedGLBData
	}

	var jsonChunk, binChunk []byte
	offset := 12
	for offset+8 <= total {
		length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		kind := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		start := offset + 8
		end := start + length
		if end > total {
			return nil, nil, ErrTruncatedGLBData
		}

		switch kind {
		case glbChunkJSON:
			jsonChunk = data[start:end]
		case glbChunkBIN:
			if binChunk == nil {
				binChunk = data[start:end]
			}
		}
		offset = end
	}

	if jsonChunk == nil {
		return nil, nil, ErrMissingJSONChunk
	}
	return jsonChunk, binChunk, nil
}

// loadBuffers resolves every buffer from the GLB BIN chunk, a data URI, or a file.
func (g *GLTF) loadBuffers(binChunk []byte) error {
	for i := range g.Buffers {
		buf := &g.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && binChunk != nil:
			buf.Data = binChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d: %w: no URI and no GLB BIN chunk", i, ErrInvalidBufferURI)
		case strings.HasPrefix(buf.URI, "data:"):
			data, err := decodeDataURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		default:
			data, err := os.ReadFile(filepath.Join(g.BaseDir, buf.URI))
			if err != nil {
				return fmt.Errorf("buffer %d: reading %q: %w", i, buf.URI, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w (%d < %d)", i, ErrBufferTooShort, len(buf.Data), buf.ByteLength)
		}
	}
	return nil
}

// decodeDataURI decodes data:[<mediatype>];base64,<payload>.
func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, ErrInvalidBufferURI
	}
	if !strings.HasSuffix(uri[:comma], ";base64") {
		return nil, fmt.Errorf("%w: only base64 data URIs are supported", ErrInvalidBufferURI)
	}
	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBufferURI, err)
	}
	return data, nil
}

// DefaultScene returns the index of the scene to display, or -1 if the document has none.
func (g *GLTF) DefaultScene() int {
	if g.Scene != nil && *g.Scene >= 0 && *g.Scene < len(g.Scenes) {
		return *g.Scene
	}
	if len(g.Scenes) > 0 {
		return 0
	}
	return -1
}

// RootNode returns the first root node of the default scene.
// Without scenes it falls back to the first node that is nobody's child.
// Returns -1 for an empty document.
func (g *GLTF) RootNode() int {
	if s := g.DefaultScene(); s >= 0 && len(g.Scenes[s].Nodes) > 0 {
		return g.Scenes[s].Nodes[0]
	}

	isChild := make([]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	for i, child := range isChild {
		if !child {
			return i
		}
	}
	return -1
}

// componentSize returns the byte size of one accessor component.
func componentSize(componentType int) int {
	switch componentType {
	case GLTFByte, GLTFUnsignedByte:
		return 1
	case GLTFShort, GLTFUnsignedShort:
		return 2
	case GLTFUnsignedInt, GLTFFloat:
		return 4
	default:
		return 0
	}
}

// componentCount returns the number of components of an accessor element type.
func componentCount(accessorType string) int {
	switch accessorType {
	case GLTFScalar:
		return 1
	case GLTFVec2:
		return 2
	case GLTFVec3:
		return 3
	case GLTFVec4, GLTFMat2:
		return 4
	case GLTFMat3:
		return 9
	case GLTFMat4:
		return 16
	default:
		return 0
	}
}

// maxUnbackedCount caps accessors without a buffer view, which read as zeros
// and would otherwise allocate whatever count the document claims.
const maxUnbackedCount = 1 << 20

// maxByteStride is the largest byteStride glTF allows.
const maxByteStride = 252

// accessorLayout is the validated location of an accessor's elements.
type accessorLayout struct {
	acc    *GLTFAccessor
	data   []byte // nil when the accessor has no buffer view
	base   int
	stride int
	size   int // bytes per component
	count  int // components per element
}

// elem returns the bytes of element i.
func (l accessorLayout) elem(i int) []byte {
	return l.data[l.base+i*l.stride:]
}

// layout validates an accessor against its buffer view and buffer so that
// every element read afterwards is in bounds.
func (g *GLTF) layout(index int) (accessorLayout, error) {
	if index < 0 || index >= len(g.Accessors) {
		return accessorLayout{}, fmt.Errorf("%w: index %d out of range", ErrInvalidAccessor, index)
	}
	acc := &g.Accessors[index]
	if acc.Sparse != nil {
		return accessorLayout{}, fmt.Errorf("accessor %d: %w", index, ErrSparseAccessor)
	}

	l := accessorLayout{
		acc:   acc,
		size:  componentSize(acc.ComponentType),
		count: componentCount(acc.Type),
	}
	if l.size == 0 || l.count == 0 {
		return accessorLayout{}, fmt.Errorf("%w: accessor %d has type %s/%d", ErrInvalidAccessor, index, acc.Type, acc.ComponentType)
	}
	if acc.Count < 0 || acc.ByteOffset < 0 {
		return accessorLayout{}, fmt.Errorf("%w: accessor %d has count %d, byteOffset %d", ErrInvalidAccessor, index, acc.Count, acc.ByteOffset)
	}

	// glTF allows an accessor without a buffer view; it reads as zeros.
	if acc.BufferView == nil {
		if acc.Count > maxUnbackedCount {
			return accessorLayout{}, fmt.Errorf("%w: accessor %d has %d elements and no buffer view", ErrInvalidAccessor, index, acc.Count)
		}
		return l, nil
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(g.BufferViews) {
		return accessorLayout{}, fmt.Errorf("%w: accessor %d references bufferView %d", ErrInvalidAccessor, index, *acc.BufferView)
	}
	view := &g.BufferViews[*acc.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(g.Buffers) {
		return accessorLayout{}, fmt.Errorf("%w: bufferView %d references buffer %d", ErrInvalidAccessor, *acc.BufferView, view.Buffer)
	}
	if view.ByteOffset < 0 || view.ByteLength < 0 {
		return accessorLayout{}, fmt.Errorf("%w: bufferView %d has byteOffset %d, byteLength %d", ErrInvalidAccessor, *acc.BufferView, view.ByteOffset, view.ByteLength)
	}
	l.data = g.Buffers[view.Buffer].Data

	elemSize := l.size * l.count
	l.stride = elemSize
	if view.ByteStride != nil && *view.ByteStride > 0 {
		l.stride = *view.ByteStride
	}
	if l.stride < elemSize || l.stride > maxByteStride {
		return accessorLayout{}, fmt.Errorf("%w: bufferView %d has byteStride %d for %d-byte elements", ErrInvalidAccessor, *acc.BufferView, l.stride, elemSize)
	}

	// Every operand is non-negative and at most len(data) before multiplying,
	// so the end offset cannot overflow.
	end := min(len(l.data), view.ByteOffset+view.ByteLength)
	if view.ByteOffset > len(l.data) || acc.ByteOffset > len(l.data) || acc.Count > len(l.data) {
		return accessorLayout{}, fmt.Errorf("%w: accessor %d reads past its buffer view", ErrInvalidAccessor, index)
	}
	l.base = view.ByteOffset + acc.ByteOffset
	if acc.Count > 0 && l.base+(acc.Count-1)*l.stride+elemSize > end {
		return accessorLayout{}, fmt.Errorf("%w: accessor %d reads past its buffer view", ErrInvalidAccessor, index)
	}
	return l, nil
}

// ReadAccessor decodes an accessor into a flat float32 slice, one entry per component.
// Integer components are converted as-is unless the accessor is normalized,
// in which case they are mapped to [0, 1] (unsigned) or [-1, 1] (signed).
func (g *GLTF) ReadAccessor(index int) ([]float32, int, error) {
	l, err := g.layout(index)
	if err != nil {
		return nil, 0, err
	}

	out := make([]float32, l.acc.Count*l.count)
	if l.data == nil {
		return out, l.count, nil
	}
	for i := 0; i < l.acc.Count; i++ {
		elem := l.elem(i)
		for c := 0; c < l.count; c++ {
			out[i*l.count+c] = readComponent(elem[c*l.size:], l.acc.ComponentType, l.acc.Normalized)
		}
	}
	return out, l.count, nil
}

// readComponent decodes one little-endian component.
func readComponent(b []byte, componentType int, normalized bool) float32 {
	switch componentType {
	case GLTFFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case GLTFUnsignedByte:
		if normalized {
			return float32(b[0]) / 255
		}
		return float32(b[0])
	case GLTFByte:
		v := int8(b[0])
		if normalized {
			return max(float32(v)/127, -1)
		}
		return float32(v)
	case GLTFUnsignedShort:
		v := binary.LittleEndian.Uint16(b)
		if normalized {
			return float32(v) / 65535
		}
		return float32(v)
	case GLTFShort:
		v := int16(binary.LittleEndian.Uint16(b))
		if normalized {
			return max(float32(v)/32767, -1)
		}
		return float32(v)
	case GLTFUnsignedInt:
		return float32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

// readTyped checks the element type and reads the accessor.
func (g *GLTF) readTyped(index int, want string) ([]float32, error) {
	if index < 0 || index >= len(g.Accessors) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidAccessor, index)
	}
	if got := g.Accessors[index].Type; got != want {
		return nil, fmt.Errorf("%w: accessor %d is %s, want %s", ErrInvalidAccessor, index, got, want)
	}
	flat, _, err := g.ReadAccessor(index)
	return flat, err
}

// ReadScalars reads a SCALAR accessor (keyframe times, weights).
func (g *GLTF) ReadScalars(index int) ([]float32, error) {
	return g.readTyped(index, GLTFScalar)
}

// ReadVec2s reads a VEC2 accessor (texture coordinates).
func (g *GLTF) ReadVec2s(index int) ([][2]float32, error) {
	flat, err := g.readTyped(index, GLTFVec2)
	if err != nil {
		return nil, err
	}
	out := make([][2]float32, len(flat)/2)
	for i := range out {
		copy(out[i][:], flat[i*2:i*2+2])
	}
	return out, nil
}

// ReadVec3s reads a VEC3 accessor (positions, translations, scales).
func (g *GLTF) ReadVec3s(index int) ([][3]float32, error) {
	flat, err := g.readTyped(index, GLTFVec3)
	if err != nil {
		return nil, err
	}
	out := make([][3]float32, len(flat)/3)
	for i := range out {
		copy(out[i][:], flat[i*3:i*3+3])
	}
	return out, nil
}

// ReadVec4s reads a VEC4 accessor (rotations, joints, weights).
func (g *GLTF) ReadVec4s(index int) ([][4]float32, error) {
	flat, err := g.readTyped(index, GLTFVec4)
	if err != nil {
		return nil, err
	}
	out := make([][4]float32, len(flat)/4)
	for i := range out {
		copy(out[i][:], flat[i*4:i*4+4])
	}
	return out, nil
}

// ReadMat4s reads a MAT4 accessor (inverse bind matrices), column-major.
func (g *GLTF) ReadMat4s(index int) ([][16]float32, error) {
	flat, err := g.readTyped(index, GLTFMat4)
	if err != nil {
		return nil, err
	}
	out := make([][16]float32, len(flat)/16)
	for i := range out {
		copy(out[i][:], flat[i*16:i*16+16])
	}
	return out, nil
}

// ReadIndices reads an index accessor (u8, u16 or u32).
func (g *GLTF) ReadIndices(index int) ([]uint32, error) {
	if index < 0 || index >= len(g.Accessors) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidAccessor, index)
	}
	switch g.Accessors[index].ComponentType {
	case GLTFUnsignedByte, GLTFUnsignedShort, GLTFUnsignedInt:
	default:
		return nil, fmt.Errorf("%w: index accessor %d has component type %d", ErrInvalidAccessor, index, g.Accessors[index].ComponentType)
	}
	if got := g.Accessors[index].Type; got != GLTFScalar {
		return nil, fmt.Errorf("%w: accessor %d is %s, want %s", ErrInvalidAccessor, index, got, GLTFScalar)
	}
	l, err := g.layout(index)
	if err != nil {
		return nil, err
	}

	// Read the integers directly: a float32 detour loses precision past 2^24.
	out := make([]uint32, l.acc.Count)
	if l.data == nil {
		return out, nil
	}
	for i := range out {
		b := l.elem(i)
		switch l.acc.ComponentType {
		case GLTFUnsignedByte:
			out[i] = uint32(b[0])
		case GLTFUnsignedShort:
			out[i] = uint32(binary.LittleEndian.Uint16(b))
		case GLTFUnsignedInt:
			out[i] = binary.LittleEndian.Uint32(b)
		}
	}
	return out, nil
}

// ReadJoints reads a JOINTS_n accessor (u8 or u16 VEC4).
func (g *GLTF) ReadJoints(index int) ([][4]uint16, error) {
	flat, err := g.readTyped(index, GLTFVec4)
	if err != nil {
		return nil, err
	}
	out := make([][4]uint16, len(flat)/4)
	for i := range out {
		for c := 0; c < 4; c++ {
			out[i][c] = uint16(flat[i*4+c])
		}
	}
	return out, nil
}

// ReadWeights reads a WEIGHTS_n accessor. Normalized integer weights map to [0, 1].
func (g *GLTF) ReadWeights(index int) ([][4]float32, error) {
	return g.ReadVec4s(index)
}

// NodeName returns the node's name or a positional fallback.
func (g *GLTF) NodeName(index int) string {
	if index >= 0 && index < len(g.Nodes) && g.Nodes[index].Name != "" {
		return g.Nodes[index].Name
	}
	return fmt.Sprintf("node_%d", index)
}
