// Package magicmod is the second illustrative module (spec.md §9's
// magic-module sketch, reimplemented without libmagic): it sniffs a small
// built-in table of byte signatures instead of shelling out to libmagic,
// and its root struct is structurally different from mathmod's — a nested
// struct plus a repeated field — to exercise the descriptor's struct/array
// wrappers (spec.md §6 "introspectable data structure").
package magicmod

import (
	"bytes"

	"github.com/metthal/yara-x/pkg/modules"
	"github.com/metthal/yara-x/pkg/types"
)

// signature is one entry in the built-in sniffing table.
type signature struct {
	magic    []byte
	typeName string
	mime     string
}

var signatures = []signature{
	{[]byte("MZ"), "MS-DOS executable", "application/x-dosexec"},
	{[]byte("\x7fELF"), "ELF executable", "application/x-executable"},
	{[]byte("PK\x03\x04"), "Zip archive", "application/zip"},
	{[]byte("%PDF"), "PDF document", "application/pdf"},
	{[]byte("\x89PNG\r\n\x1a\n"), "PNG image", "image/png"},
	{[]byte("\xff\xd8\xff"), "JPEG image", "image/jpeg"},
}

var matchType *types.StructType

func init() {
	matchType = types.NewStructBuilder("magic.Match").
		AddField("type", types.String).
		AddField("mime_type", types.String)

	root := types.NewStructBuilder("magic.Magic").
		AddField("type", types.String).
		AddField("mime_type", types.String).
		AddField("candidates", types.NewArrayType(types.NewStructType(matchType)))

	modules.Register(&modules.Module{
		Name: "magic",
		Root: root,
		Main: main,
	})
}

// main sniffs data against the built-in signature table. Every matching
// signature is reported in candidates (ambiguous prefixes, e.g. a Zip-based
// format, can match more than one); type/mime_type are the first match, or
// empty strings when nothing matches. Unlike the libmagic-backed original,
// there is no per-scan cache to invalidate here: sniffing a fixed-size
// prefix against a small table is cheap enough to simply redo per scan.
func main(data []byte) (*types.StructInstance, bool) {
	var candidates []types.Value
	typeName, mime := "", ""
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig.magic) {
			if typeName == "" {
				typeName, mime = sig.typeName, sig.mime
			}
			candidates = append(candidates, types.Value{
				Type: types.NewStructType(matchType), Known: true,
				StructVal: &types.StructInstance{
					Type: matchType,
					Values: []types.Value{
						types.StringValue([]byte(sig.typeName)),
						types.StringValue([]byte(sig.mime)),
					},
				},
			})
		}
	}
	return &types.StructInstance{
		Type: rootType(),
		Values: []types.Value{
			types.StringValue([]byte(typeName)),
			types.StringValue([]byte(mime)),
			{Type: types.NewArrayType(types.NewStructType(matchType)), Known: true,
				ArrayVal: &types.ArrayInstance{Elem: types.NewStructType(matchType), Items: candidates}},
		},
	}, true
}

func rootType() *types.StructType {
	m, _ := modules.Lookup("magic")
	return m.Root
}
