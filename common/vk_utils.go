package common

import (
	"unsafe"
)

// Provides general helper functions for comparisons and conversions

// AllOfAinB comparison function to ensure a given list is fully contained in another. This is
// mainly used to check for extension and layer support during the initialization process.
func AllOfAinB(a []string, b []string) bool {
	return len(Missing(a, b)) == 0
}

// Missing returns the entries of a that are not in b, in the order of a.
func Missing(a []string, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, s := range b {
		inB[TrimTerminator(s)] = struct{}{}
	}
	var missing []string
	for _, s := range a {
		if _, ok := inB[TrimTerminator(s)]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// TerminatedStr ensures the given string is \x00 terminated as vulkan expects this in certain structs
func TerminatedStr(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

// TerminatedStrs returns a terminated copy of strs, the input is left untouched.
func TerminatedStrs(strs []string) []string {
	out := make([]string, len(strs))
	for i := range strs {
		out[i] = TerminatedStr(strs[i])
	}
	return out
}

// TrimTerminator drops a trailing \x00.
func TrimTerminator(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\x00' {
		return s[:len(s)-1]
	}
	return s
}

// AsUint32Arr reinterprets SPIR-V bytes as the []uint32 vk.ShaderModuleCreateInfo expects. Trailing bytes that do
// not form a full word are dropped, valid SPIR-V is always a multiple of 4 bytes long.
// See: https://vulkan-tutorial.com/Drawing_a_triangle/Graphics_pipeline_basics/Shader_modules
func AsUint32Arr(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}
