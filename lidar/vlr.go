package lidar

import (
	terrane "github.com/kestrel-gis/terrane"
)

// Record IDs carrying georeferencing payloads that callers may want to
// interpret specially, per spec.md §3.
const (
	RecordIDGeoKeyDirectory = 34735
	RecordIDGeoDoubleParams = 34736
	RecordIDGeoASCIIParams  = 34737
	RecordIDWKT             = 2112
)

// VLR is a variable-length record: a LAS metadata block keyed by a 16-byte
// user id and a 16-bit record id, per spec.md §3/§6.
type VLR struct {
	Reserved      uint16
	UserID        string
	RecordID      uint16
	Description   string
	Payload       []byte
}

// ReadVLR parses one VLR starting at the cursor's current position.
func ReadVLR(r *terrane.ByteReader) (*VLR, error) {
	v := &VLR{}
	var err error
	v.Reserved, err = r.ReadU16()
	if err != nil {
		return nil, err
	}
	v.UserID, err = r.ReadUTF8(16)
	if err != nil {
		return nil, err
	}
	v.RecordID, err = r.ReadU16()
	if err != nil {
		return nil, err
	}
	length, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	v.Description, err = r.ReadUTF8(32)
	if err != nil {
		return nil, err
	}
	v.Payload = make([]byte, length)
	for i := range v.Payload {
		b, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		v.Payload[i] = b
	}
	return v, nil
}

// WriteVLR serialises v to w.
func WriteVLR(w *terrane.ByteWriter, v *VLR) {
	w.WriteU16(v.Reserved)
	w.WriteUTF8(v.UserID, 16)
	w.WriteU16(v.RecordID)
	w.WriteU16(uint16(len(v.Payload)))
	w.WriteUTF8(v.Description, 32)
	for _, b := range v.Payload {
		w.WriteU8(b)
	}
}

// EncodedLen reports the on-disk size of v including its fixed header.
func (v *VLR) EncodedLen() int {
	return 2 + 16 + 2 + 2 + 32 + len(v.Payload)
}

// IsGeoTIFF reports whether v carries one of the three GeoTIFF key record
// IDs (34735/34736/34737).
func (v *VLR) IsGeoTIFF() bool {
	switch v.RecordID {
	case RecordIDGeoKeyDirectory, RecordIDGeoDoubleParams, RecordIDGeoASCIIParams:
		return true
	default:
		return false
	}
}

// IsWKT reports whether v carries a WKT projection string (record id 2112).
func (v *VLR) IsWKT() bool { return v.RecordID == RecordIDWKT }

// WKTString decodes v's payload as a WKT projection string, or
// ErrSiblingAbsent if v does not carry one.
func (v *VLR) WKTString() (string, error) {
	if !v.IsWKT() {
		return "", ErrSiblingAbsent
	}
	return string(v.Payload), nil
}

// EPSGFromGeoKeys scans a GeoKeyDirectory VLR's payload for the projected
// (ProjectedCSTypeGeoKey, 3072) or geographic (GeographicTypeGeoKey, 2048) CS
// type key and returns its code, or 0 if the VLR carries neither. The
// directory is a header of four u16 values (KeyDirectoryVersion,
// KeyRevision, MinorRevision, NumberOfKeys) followed by NumberOfKeys entries
// of four u16 each (KeyID, TIFFTagLocation, Count, ValueOffset); a key is
// stored inline when TIFFTagLocation is 0, which both CS type keys always are.
func EPSGFromGeoKeys(payload []byte) uint16 {
	if len(payload) < 8 {
		return 0
	}
	le16 := func(i int) uint16 { return uint16(payload[i]) | uint16(payload[i+1])<<8 }

	numKeys := int(le16(6))
	for i := 0; i < numKeys; i++ {
		off := 8 + i*8
		if off+8 > len(payload) {
			break
		}
		keyID := le16(off)
		tagLocation := le16(off + 2)
		valueOffset := le16(off + 6)
		if tagLocation == 0 && (keyID == 3072 || keyID == 2048) {
			return valueOffset
		}
	}
	return 0
}

// ReadVLRs reads count consecutive VLRs starting at the cursor's current
// position, per the §4.4.1 ParseVLRs phase.
func ReadVLRs(r *terrane.ByteReader, count uint32) ([]*VLR, error) {
	vlrs := make([]*VLR, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := ReadVLR(r)
		if err != nil {
			return nil, err
		}
		vlrs = append(vlrs, v)
	}
	return vlrs, nil
}
