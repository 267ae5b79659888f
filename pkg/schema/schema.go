package schema

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// Method describes one rpc declaration.
type Method struct {
	// SimpleName is the rpc name, unique across all services in the table.
	SimpleName string

	// FullPath is the wire-level method path, "/pkg.Service/Method" when a
	// package is declared, "/Service/Method" otherwise.
	FullPath string

	// Service is the name of the service the rpc was declared in.
	Service string

	// Input and Output are the resolved message descriptors. Both are
	// always non-nil on a parsed method.
	Input  protoreflect.MessageDescriptor
	Output protoreflect.MessageDescriptor

	// ClientStreaming and ServerStreaming report the stream keyword on the
	// request and response type. Dispatch is unary-only; the flags are
	// surfaced so callers can reject streaming methods.
	ClientStreaming bool
	ServerStreaming bool
}

// IsUnary returns true if the method streams in neither direction.
func (m *Method) IsUnary() bool {
	return !m.ClientStreaming && !m.ServerStreaming
}

// MethodTable maps simple rpc names to method records. It is immutable
// after construction and safe for concurrent reads.
type MethodTable struct {
	methods map[string]*Method
	byPath  map[string]*Method
	files   []protoreflect.FileDescriptor
}

// Get returns a method by its simple rpc name, or nil.
func (t *MethodTable) Get(name string) *Method {
	return t.methods[name]
}

// ByPath returns a method by its wire-level full path, or nil.
func (t *MethodTable) ByPath(path string) *Method {
	return t.byPath[path]
}

// Len returns the number of methods in the table.
func (t *MethodTable) Len() int {
	return len(t.methods)
}

// Methods returns all methods sorted by simple name.
func (t *MethodTable) Methods() []*Method {
	out := make([]*Method, 0, len(t.methods))
	for _, m := range t.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SimpleName < out[j].SimpleName })
	return out
}

// Files returns the compiled file descriptors backing the table.
func (t *MethodTable) Files() []protoreflect.FileDescriptor {
	return t.files
}

// ParseFile parses a single .proto file into a MethodTable.
func ParseFile(path string) (*MethodTable, error) {
	return ParseFiles([]string{path}, nil)
}

// ParseFiles parses multiple .proto files into a unified MethodTable.
// importPaths lists directories searched for imported files, like protoc -I.
// Simple rpc names must be unique across every service in every file.
func ParseFiles(paths []string, importPaths []string) (*MethodTable, error) {
	if len(paths) == 0 {
		return nil, ErrNoProtoFiles
	}

	sources := make(map[string]string, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &FileNotFoundError{Path: path, Err: err}
		}
		sources[path] = string(data)
	}

	registry, files, err := compile(paths, importPaths)
	if err != nil {
		return nil, err
	}

	table := &MethodTable{
		methods: make(map[string]*Method),
		byPath:  make(map[string]*Method),
		files:   files,
	}
	for _, path := range paths {
		if err := parseServices(sources[path], registry, table); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// compile runs the protobuf toolchain over the given files and registers
// every compiled file so message types resolve by fully-qualified name.
func compile(paths []string, importPaths []string) (*protoregistry.Files, []protoreflect.FileDescriptor, error) {
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&sourceResolver{
			importPaths: importPaths,
			basePaths:   paths,
		}),
	}

	compiled, err := compiler.Compile(context.Background(), paths...)
	if err != nil {
		return nil, nil, &CompileError{Err: err}
	}

	registry := new(protoregistry.Files)
	files := make([]protoreflect.FileDescriptor, 0, len(compiled))
	for _, file := range compiled {
		if err := registry.RegisterFile(file); err != nil {
			return nil, nil, &CompileError{Err: err}
		}
		files = append(files, file)
	}
	return registry, files, nil
}

// resolveMessage looks up a message descriptor by fully-qualified name.
// When the qualified lookup misses and a package was in effect, it retries
// the unqualified short name; some registries carry pre-registered types
// without package qualification. A name that is already dotted (or written
// with a leading dot) is treated as fully qualified.
func resolveMessage(registry *protoregistry.Files, pkg, name string) (protoreflect.MessageDescriptor, error) {
	name = strings.TrimPrefix(name, ".")

	fq := name
	if pkg != "" && !strings.Contains(name, ".") {
		fq = pkg + "." + name
	}

	if md, ok := findMessage(registry, fq); ok {
		return md, nil
	}
	if fq != name {
		if md, ok := findMessage(registry, name); ok {
			return md, nil
		}
	}
	if !strings.Contains(name, ".") {
		if md, ok := scanByShortName(registry, name); ok {
			return md, nil
		}
	}
	return nil, &DescriptorMissingError{FullName: fq}
}

// scanByShortName searches every registered file for a top-level message
// with the given short name. This is the last resort when the parse-time
// package does not match the registered qualification, e.g. a package
// directive placed after a service declaration.
func scanByShortName(registry *protoregistry.Files, name string) (protoreflect.MessageDescriptor, bool) {
	var found protoreflect.MessageDescriptor
	registry.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		msgs := fd.Messages()
		for i := 0; i < msgs.Len(); i++ {
			if string(msgs.Get(i).Name()) == name {
				found = msgs.Get(i)
				return false
			}
		}
		return true
	})
	return found, found != nil
}

// sourceResolver locates .proto sources: the explicit import paths first,
// then the directories of the input files, then the path as given.
type sourceResolver struct {
	importPaths []string
	basePaths   []string
}

func (r *sourceResolver) FindFileByPath(path string) (protocompile.SearchResult, error) {
	for _, importPath := range r.importPaths {
		if result, ok := openSource(filepath.Join(importPath, path)); ok {
			return result, nil
		}
	}
	for _, basePath := range r.basePaths {
		if result, ok := openSource(filepath.Join(filepath.Dir(basePath), path)); ok {
			return result, nil
		}
	}
	if result, ok := openSource(path); ok {
		return result, nil
	}
	return protocompile.SearchResult{}, fs.ErrNotExist
}

func openSource(path string) (protocompile.SearchResult, bool) {
	f, err := os.Open(path)
	if err != nil {
		return protocompile.SearchResult{}, false
	}
	return protocompile.SearchResult{Source: f}, true
}

func findMessage(registry *protoregistry.Files, name string) (protoreflect.MessageDescriptor, bool) {
	desc, err := registry.FindDescriptorByName(protoreflect.FullName(name))
	if err != nil {
		return nil, false
	}
	md, ok := desc.(protoreflect.MessageDescriptor)
	return md, ok
}

// Ensure linker.File satisfies protoreflect.FileDescriptor at compile time.
var _ protoreflect.FileDescriptor = (linker.File)(nil)
