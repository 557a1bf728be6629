package formats

// glTF 2.0 JSON schema subset needed for scene graphs, skins and animations.
// Materials and images are kept as indices only; textures are not decoded here.

// GLTF is a parsed glTF 2.0 document with its buffers resolved.
type GLTF struct {
	Asset       GLTFAsset        `json:"asset"`
	Scene       *int             `json:"scene,omitempty"`
	Scenes      []GLTFScene      `json:"scenes,omitempty"`
	Nodes       []GLTFNode       `json:"nodes,omitempty"`
	Meshes      []GLTFMesh       `json:"meshes,omitempty"`
	Accessors   []GLTFAccessor   `json:"accessors,omitempty"`
	BufferViews []GLTFBufferView `json:"bufferViews,omitempty"`
	Buffers     []GLTFBuffer     `json:"buffers,omitempty"`
	Skins       []GLTFSkin       `json:"skins,omitempty"`
	Animations  []GLTFAnimation  `json:"animations,omitempty"`
	Materials   []GLTFMaterial   `json:"materials,omitempty"`

	BaseDir string `json:"-"` // Directory used to resolve relative buffer URIs
}

// GLTFAsset holds asset metadata.
type GLTFAsset struct {
	Version    string `json:"version"`
	MinVersion string `json:"minVersion,omitempty"`
	Generator  string `json:"generator,omitempty"`
}

// GLTFScene lists the root nodes of one scene.
type GLTFScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// GLTFNode is one entry of the node hierarchy.
// Matrix and TRS are mutually exclusive in glTF.
type GLTFNode struct {
	Name        string       `json:"name,omitempty"`
	Children    []int        `json:"children,omitempty"`
	Mesh        *int         `json:"mesh,omitempty"`
	Skin        *int         `json:"skin,omitempty"`
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	Rotation    *[4]float32  `json:"rotation,omitempty"` // X, Y, Z, W
	Scale       *[3]float32  `json:"scale,omitempty"`
}

// GLTFMesh is a set of primitives.
type GLTFMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []GLTFPrimitive `json:"primitives"`
}

// GLTFPrimitive is one draw call worth of geometry.
type GLTFPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`
	Mode       *int           `json:"mode,omitempty"`
}

// Primitive draw modes.
const (
	GLTFModePoints        = 0
	GLTFModeLines         = 1
	GLTFModeLineLoop      = 2
	GLTFModeLineStrip     = 3
	GLTFModeTriangles     = 4
	GLTFModeTriangleStrip = 5
	GLTFModeTriangleFan   = 6
)

// GLTFMaterial keeps the base color factor; texture binding is a renderer concern.
type GLTFMaterial struct {
	Name                 string                    `json:"name,omitempty"`
	PBRMetallicRoughness *GLTFPBRMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`
}

// GLTFPBRMetallicRoughness holds the subset of PBR parameters carried through to meshes.
type GLTFPBRMetallicRoughness struct {
	BaseColorFactor  *[4]float32      `json:"baseColorFactor,omitempty"`
	BaseColorTexture *GLTFTextureInfo `json:"baseColorTexture,omitempty"`
}

// GLTFTextureInfo references a texture by index.
type GLTFTextureInfo struct {
	Index    int `json:"index"`
	TexCoord int `json:"texCoord,omitempty"`
}

// GLTFAccessor describes how to read typed elements out of a buffer view.
type GLTFAccessor struct {
	Name          string      `json:"name,omitempty"`
	BufferView    *int        `json:"bufferView,omitempty"`
	ByteOffset    int         `json:"byteOffset,omitempty"`
	ComponentType int         `json:"componentType"`
	Normalized    bool        `json:"normalized,omitempty"`
	Count         int         `json:"count"`
	Type          string      `json:"type"`
	Max           []float32   `json:"max,omitempty"`
	Min           []float32   `json:"min,omitempty"`
	Sparse        *GLTFSparse `json:"sparse,omitempty"`
}

// GLTFSparse is only decoded far enough to reject sparse accessors.
type GLTFSparse struct {
	Count int `json:"count"`
}

// Accessor component types.
const (
	GLTFByte          = 5120
	GLTFUnsignedByte  = 5121
	GLTFShort         = 5122
	GLTFUnsignedShort = 5123
	GLTFUnsignedInt   = 5125
	GLTFFloat         = 5126
)

// Accessor element types.
const (
	GLTFScalar = "SCALAR"
	GLTFVec2   = "VEC2"
	GLTFVec3   = "VEC3"
	GLTFVec4   = "VEC4"
	GLTFMat2   = "MAT2"
	GLTFMat3   = "MAT3"
	GLTFMat4   = "MAT4"
)

// GLTFBufferView is a byte range inside a buffer.
type GLTFBufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride,omitempty"`
}

// GLTFBuffer is a binary blob. Data is filled in during parsing.
type GLTFBuffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
	Data       []byte `json:"-"`
}

// GLTFSkin binds joints to inverse bind matrices.
type GLTFSkin struct {
	Name                string `json:"name,omitempty"`
	InverseBindMatrices *int   `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int   `json:"skeleton,omitempty"`
	Joints              []int  `json:"joints"`
}

// GLTFAnimation is a named set of channels and samplers.
type GLTFAnimation struct {
	Name     string            `json:"name,omitempty"`
	Channels []GLTFAnimChannel `json:"channels"`
	Samplers []GLTFAnimSampler `json:"samplers"`
}

// GLTFAnimChannel connects a sampler to a node property.
type GLTFAnimChannel struct {
	Sampler int            `json:"sampler"`
	Target  GLTFAnimTarget `json:"target"`
}

// GLTFAnimTarget names the animated node and property path.
type GLTFAnimTarget struct {
	Node *int   `json:"node,omitempty"`
	Path string `json:"path"`
}

// GLTFAnimSampler points at keyframe time and value accessors.
type GLTFAnimSampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation,omitempty"`
}

// Animation target paths.
const (
	GLTFPathTranslation = "translation"
	GLTFPathRotation    = "rotation"
	GLTFPathScale       = "scale"
	GLTFPathWeights     = "weights"
)

// Sampler interpolation modes.
const (
	GLTFInterpolationLinear      = "LINEAR"
	GLTFInterpolationStep        = "STEP"
	GLTFInterpolationCubicSpline = "CUBICSPLINE"
)

// GLB container constants.
const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A // "JSON"
	glbChunkBIN  = 0x004E4942 // "BIN\0"
)
