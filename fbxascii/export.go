package fbxascii

import (
	"bufio"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gpuix/drawcall_exporter/logger"
)

var sectionBanners = map[string]string{
	"Definitions": "Object definitions",
	"Objects":     "Object properties",
	"Connections": "Object connections",
}

type renderer struct {
	tabs   int
	w      *bufio.Writer
	params int
}

func (e *renderer) fillTabs(diff int) {
	for i := 0; i < e.tabs+diff; i++ {
		e.w.WriteRune('\t')
	}
}

func (e *renderer) tabsInc() { e.tabs++ }
func (e *renderer) tabsDec() { e.tabs-- }

func (e *renderer) printf(format string, args ...interface{}) {
	e.w.WriteString(fmt.Sprintf(format, args...))
}
func (e *renderer) print(s string) {
	e.w.WriteString(s)
}

func (e *renderer) simpleValueString(nodeValue reflect.Value) string {
	switch nodeValue.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", nodeValue.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", nodeValue.Uint())
	case reflect.Float32, reflect.Float64:
		// shortest representation, matches the 4-decimal rounding done
		// by the attribute decoder without trailing zeros
		return strconv.FormatFloat(nodeValue.Float(), 'g', -1, 64)
	case reflect.String:
		return fmt.Sprintf("\"%s\"", nodeValue.String())
	case reflect.Bool:
		if nodeValue.Bool() {
			return "T"
		} else {
			return ""
		}
	default:
		return ""
	}
}

func (e *renderer) renderParameters(paramValue reflect.Value) {
	switch paramValue.Type().Kind() {
	case reflect.Interface, reflect.Ptr:
		e.renderParameters(paramValue.Elem())
		return
	case reflect.Slice, reflect.Array:
		for i := 0; i < paramValue.Len(); i++ {
			e.renderParameters(paramValue.Index(i))
		}
		return
	}

	if e.params != 0 {
		e.print(", ")
	}
	switch paramValue.Type().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		e.print(e.simpleValueString(paramValue))
		e.params++
	default:
		panic(paramValue.Type().Kind())
	}
}

func (e *renderer) renderStruct(name string, nodeValue reflect.Value) {
	nodeType := nodeValue.Type()

	e.params = 0
	if e.tabs == 0 {
		if banner, ok := sectionBanners[name]; ok {
			e.printf("; %s\n", banner)
			e.print(";------------------------------------------------------------------\n\n")
		}
	}
	e.fillTabs(0)
	if e.tabs >= 0 {
		e.printf("%s: ", name)
	}

	// Print parameters
	for i := 0; i < nodeValue.NumField(); i++ {
		fieldStruct := nodeType.Field(i)

		tag := fieldStruct.Tag.Get("fbx")
		if tag == "" {
			continue
		}
		tags := strings.Split(tag, ",")
		if tags[0] != "p" {
			continue
		}

		e.renderParameters(nodeValue.Field(i))
	}

	openedBracket := false

	openBrackets := func() {
		if !openedBracket {
			if e.tabs >= 0 {
				if e.params != 0 {
					e.print(" ")
				}
				e.printf("{\n")
			}
			openedBracket = true
		}
	}
	if e.tabs == 0 {
		openBrackets()
	}

	// Print subnodes
	for i := 0; i < nodeValue.NumField(); i++ {
		fieldStruct := nodeType.Field(i)
		if fieldStruct.PkgPath != "" {
			continue
		}

		subNodeName := fieldStruct.Name
		isArrayNode := false
		tag := fieldStruct.Tag.Get("fbx")
		if tag != "" {
			tags := strings.Split(tag, ",")
			switch tags[0] {
			case "a":
				isArrayNode = true
			case "p":
				continue
			default:
				logger.Log.Panic("Unknown fbx tag type", zap.String("tag", tags[0]))
			}
		}

		openBrackets()

		subValue := nodeValue.Field(i)
		e.tabsInc()
		if isArrayNode {
			e.renderArray(subNodeName, subValue)
		} else {
			e.renderNode(subNodeName, subValue)
		}
		e.tabsDec()
	}

	if e.tabs >= 0 {
		if openedBracket {
			e.fillTabs(0)
			e.print("}")
		}
		e.print("\n")
		if e.tabs == 0 {
			e.print("\n")
		}
	}
}

func (e *renderer) renderArray(name string, nodeValue reflect.Value) {
	if nodeValue.IsNil() {
		return
	}
	switch nodeValue.Type().Kind() {
	case reflect.Interface, reflect.Ptr:
		e.renderArray(name, nodeValue.Elem())
	case reflect.Array, reflect.Slice:
		l := nodeValue.Len()
		e.fillTabs(0)
		e.printf("%s: *%d {\n", name, l)
		e.fillTabs(1)
		e.print("a: ")
		for i := 0; i < l; i++ {
			if i != 0 {
				e.print(",")
			}
			e.print(e.simpleValueString(nodeValue.Index(i)))
		}
		e.print("\n")
		e.fillTabs(0)
		e.print("}\n")
	default:
		panic(nodeValue.Type().Kind())
	}
}

func (e *renderer) renderNode(name string, nodeValue reflect.Value) {
	switch nodeValue.Kind() {
	case reflect.Interface, reflect.Ptr:
		if nodeValue.IsNil() {
			return
		}
		e.renderNode(name, nodeValue.Elem())
		return
	}

	switch nodeValue.Kind() {
	case reflect.Struct:
		e.renderStruct(name, nodeValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		e.fillTabs(0)
		e.printf("%s: %s\n", name, e.simpleValueString(nodeValue))
	case reflect.Array, reflect.Slice:
		for i := 0; i < nodeValue.Len(); i++ {
			e.renderNode(name, nodeValue.Index(i))
		}
	}
}

func (f *FBX) Export(w io.Writer) error {
	return Export(f, w)
}

func Export(f *FBX, originalWriter io.Writer) error {
	w := bufio.NewWriter(originalWriter)

	w.WriteString("; FBX 7.3.0 project file\n")
	w.WriteString("; ----------------------------------------------------\n\n")

	r := renderer{
		w:    w,
		tabs: -1,
	}

	r.renderNode("", reflect.ValueOf(f))

	return w.Flush()
}
