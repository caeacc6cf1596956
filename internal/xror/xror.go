// Package xror decodes XROR recordings: a BSON envelope holding nested
// recording metadata (user, software, hardware) and a flat frame array.
//
// Frames are stored either as a binary blob of little-endian float32
// values or as an array of numeric arrays. The envelope does not carry the
// frame width; callers supply it from the application's column schema.
package xror

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// ErrInvalidContainer reports bytes that are not a readable XROR envelope.
var ErrInvalidContainer = errors.New("invalid xror container")

// Info is the subset of recording metadata the converters use.
type Info struct {
	UserID     string
	AppName    string
	AppVersion string
}

// File is a decoded XROR recording.
type File struct {
	Info Info
	// flat holds binary frames; rows holds array frames. Exactly one is set.
	flat []float64
	rows [][]float64
}

type rawFile struct {
	Info struct {
		User struct {
			ID bson.RawValue `bson:"id"`
		} `bson:"user"`
		Software struct {
			App struct {
				Name    string `bson:"name"`
				Version string `bson:"version"`
			} `bson:"app"`
		} `bson:"software"`
	} `bson:"info"`
	Frames bson.RawValue `bson:"frames"`
}

// Unpack decodes an XROR envelope.
func Unpack(data []byte) (*File, error) {
	var raw rawFile
	if err := bson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContainer, err)
	}

	f := &File{Info: Info{
		UserID:     rawString(raw.Info.User.ID),
		AppName:    raw.Info.Software.App.Name,
		AppVersion: raw.Info.Software.App.Version,
	}}

	switch raw.Frames.Type {
	case bsontype.Binary:
		_, blob := raw.Frames.Binary()
		if len(blob)%4 != 0 {
			return nil, fmt.Errorf("%w: frame blob length %d is not a multiple of 4", ErrInvalidContainer, len(blob))
		}
		f.flat = make([]float64, len(blob)/4)
		for i := range f.flat {
			f.flat[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:])))
		}
	case bsontype.Array:
		if err := raw.Frames.Unmarshal(&f.rows); err != nil {
			return nil, fmt.Errorf("%w: frames: %v", ErrInvalidContainer, err)
		}
	default:
		return nil, fmt.Errorf("%w: frames field has type %s", ErrInvalidContainer, raw.Frames.Type)
	}
	return f, nil
}

// Frames returns the frame rows, each width values long.
func (f *File) Frames(width int) ([][]float64, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid frame width %d", width)
	}
	if f.rows != nil {
		for i, r := range f.rows {
			if len(r) != width {
				return nil, fmt.Errorf("%w: frame %d has %d values, want %d", ErrInvalidContainer, i, len(r), width)
			}
		}
		return f.rows, nil
	}
	if len(f.flat)%width != 0 {
		return nil, fmt.Errorf("%w: %d values do not divide into frames of %d", ErrInvalidContainer, len(f.flat), width)
	}
	out := make([][]float64, len(f.flat)/width)
	for i := range out {
		out[i] = f.flat[i*width : (i+1)*width]
	}
	return out, nil
}

func rawString(v bson.RawValue) string {
	switch v.Type {
	case bsontype.String:
		return v.StringValue()
	case bsontype.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case bsontype.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case bsontype.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case bsontype.ObjectID:
		return v.ObjectID().Hex()
	default:
		return ""
	}
}

// Pack encodes frames into an XROR envelope. Binary packing stores float32
// values, so precision beyond float32 is lost.
func Pack(info Info, frames [][]float64, asBinary bool) ([]byte, error) {
	var framesValue interface{} = frames
	if asBinary {
		blob := make([]byte, 0)
		for _, r := range frames {
			for _, v := range r {
				blob = binary.LittleEndian.AppendUint32(blob, math.Float32bits(float32(v)))
			}
		}
		framesValue = blob
	}
	doc := bson.D{
		{Key: "$schema", Value: "https://metaguard.github.io/xror/schema/v1.0.0"},
		{Key: "info", Value: bson.D{
			{Key: "user", Value: bson.D{{Key: "id", Value: info.UserID}}},
			{Key: "software", Value: bson.D{
				{Key: "app", Value: bson.D{
					{Key: "name", Value: info.AppName},
					{Key: "version", Value: info.AppVersion},
				}},
			}},
		}},
		{Key: "frames", Value: framesValue},
	}
	return bson.Marshal(doc)
}
