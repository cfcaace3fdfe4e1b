// Package schema defines the fixed-layout output records and the flavour
// label table.
//
// The record layouts are frozen at Version. Every field has a fixed
// primitive type and there is no nesting, so slices of records can be
// written as dense compound arrays.
package schema

// Version identifies the record layout below. Bump it on any change to the
// fields, their order or their types.
const Version int32 = 1

// JetRecord is one reconstructed jet.
type JetRecord struct {
	Pt           float32 `hdf5:"pt"`
	Eta          float32 `hdf5:"eta"`
	Phi          float32 `hdf5:"phi"`
	Energy       float32 `hdf5:"energy"`
	Mass         float32 `hdf5:"mass"`
	Flavour      int32   `hdf5:"flavour"`
	FlavourLabel int32   `hdf5:"flavour_label"`
	DR           float32 `hdf5:"dr"`
	IsMatched    bool    `hdf5:"is_matched"`
}

// ConstituentRecord is one track slot of a jet. The zero value is a padding
// slot.
type ConstituentRecord struct {
	Valid      bool    `hdf5:"valid"`
	Charge     int32   `hdf5:"charge"`
	D0         float32 `hdf5:"d0"`
	Eta        float32 `hdf5:"eta"`
	Phi        float32 `hdf5:"phi"`
	EtaRel     float32 `hdf5:"eta_rel"`
	PhiRel     float32 `hdf5:"phi_rel"`
	PtFrac     float32 `hdf5:"pt_frac"`
	DR         float32 `hdf5:"dr"`
	Z0         float32 `hdf5:"z0"`
	Signed2DIP float32 `hdf5:"signed_2d_ip"`
	Signed3DIP float32 `hdf5:"signed_3d_ip"`
}

// Kind is the primitive storage type of a field.
type Kind string

// Field kinds used by the records.
const (
	Float32 Kind = "f32"
	Int32   Kind = "i32"
	Bool    Kind = "bool"
)

// Field names one record member and its type.
type Field struct {
	Name string
	Kind Kind
}

// JetFields returns the JetRecord layout in storage order.
func JetFields() []Field {
	return []Field{
		{"pt", Float32},
		{"eta", Float32},
		{"phi", Float32},
		{"energy", Float32},
		{"mass", Float32},
		{"flavour", Int32},
		{"flavour_label", Int32},
		{"dr", Float32},
		{"is_matched", Bool},
	}
}

// ConstituentFields returns the ConstituentRecord layout in storage order.
func ConstituentFields() []Field {
	return []Field{
		{"valid", Bool},
		{"charge", Int32},
		{"d0", Float32},
		{"eta", Float32},
		{"phi", Float32},
		{"eta_rel", Float32},
		{"phi_rel", Float32},
		{"pt_frac", Float32},
		{"dr", Float32},
		{"z0", Float32},
		{"signed_2d_ip", Float32},
		{"signed_3d_ip", Float32},
	}
}
