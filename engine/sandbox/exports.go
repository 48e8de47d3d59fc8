package sandbox

import (
	"fmt"
	"go/scanner"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/teranos/codegen/devicetree"
	"github.com/teranos/codegen/engine/report"
	"github.com/teranos/codegen/engine/snippet"
	"github.com/teranos/codegen/errors"
	"github.com/teranos/codegen/logger"
)

// exports is the symbol table of the codegen package.
func (ns *Namespace) exports() map[string]reflect.Value {
	return map[string]reflect.Value{
		// Output
		"Out":        reflect.ValueOf(ns.out),
		"Outl":       reflect.ValueOf(ns.outl),
		"OutDedent":  reflect.ValueOf(ns.outDedent),
		"OutInclude": reflect.ValueOf(ns.outInclude),

		// Generation state
		"Bind":         reflect.ValueOf(ns.bind),
		"Line":         reflect.ValueOf(ns.line),
		"InFile":       reflect.ValueOf(ns.inFile),
		"OutFile":      reflect.ValueOf(ns.outFile),
		"FirstLineNum": reflect.ValueOf(ns.firstLineNum),
		"Previous":     reflect.ValueOf(ns.previous),
		"Option":       reflect.ValueOf(ns.option),
		"Define":       reflect.ValueOf(ns.define),

		// Configuration
		"ConfigProperty":   reflect.ValueOf(ns.configProperty),
		"ConfigProperties": reflect.ValueOf(ns.configProperties),

		// Flat hardware description
		"DeviceTreeProperty":        reflect.ValueOf(ns.deviceTreeProperty),
		"DeviceTreePropertyDefault": reflect.ValueOf(ns.deviceTreePropertyDefault),
		"DeviceTreeProperties":      reflect.ValueOf(ns.deviceTreeProperties),
		"ControllerCount":           reflect.ValueOf(ns.controllerCount),
		"ControllerPrefix":          reflect.ValueOf(ns.controllerPrefix),
		"ControllerProperty":        reflect.ValueOf(ns.controllerProperty),

		// Structured hardware description
		"SetDriverCompatibles":   reflect.ValueOf(ns.setDriverCompatibles),
		"UnsetDriverCompatibles": reflect.ValueOf(ns.unsetDriverCompatibles),
		"CompatibleLabels":       reflect.ValueOf(ns.compatibleLabels),
		"NodeProperty":           reflect.ValueOf(ns.nodeProperty),
		"NodePropertyDefault":    reflect.ValueOf(ns.nodePropertyDefault),
		"InstanceName":           reflect.ValueOf(ns.instanceName),
		"StructName":             reflect.ValueOf(ns.structName),
		"LabelToIndex":           reflect.ValueOf(devicetree.LabelToIndex),
		"GuardCompatibles":       reflect.ValueOf(ns.guardCompatibles),

		// Control
		"StopCodeGeneration":    reflect.ValueOf(ns.stopCodeGeneration),
		"CodeGenerationStopped": reflect.ValueOf(ns.codeGenerationStopped),
		"GuardInclude":          reflect.ValueOf(ns.guardInclude),
		"ImportModule":          reflect.ValueOf(ns.importModule),
		"RequireVersion":        reflect.ValueOf(ns.requireVersion),

		// Diagnostics
		"Error": reflect.ValueOf(ns.raiseAt),
		"Msg":   reflect.ValueOf(ns.msg),
	}
}

// frame returns the current frame; capabilities are only valid while a
// snippet runs.
func (ns *Namespace) frame() *Frame {
	f := ns.stack.Top()
	if f == nil {
		panic(report.New(report.KindExecution, "", 0, "codegen capability used outside of a snippet"))
	}
	return f
}

func (ns *Namespace) out(s string) { ns.frame().Emit(s) }

func (ns *Namespace) outl(s string) { ns.frame().Emit(s + "\n") }

// outDedent drops blank first and last lines of a multi-line text and
// removes its common indentation.
func (ns *Namespace) outDedent(s string) {
	f := ns.frame()
	if !strings.Contains(s, "\n") {
		f.Emit(strings.TrimLeft(s, " \t"))
		return
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "" {
		lines = lines[:n-1]
	}
	if len(lines) == 0 {
		return
	}
	f.Emit(snippet.ReindentBlock(lines, "") + "\n")
}

func (ns *Namespace) outInclude(name string) {
	f := ns.frame()
	if ns.providers.Includer == nil {
		ns.raise("template inclusion is not available")
	}
	text, err := ns.providers.Includer.Include(ns, name)
	if err != nil {
		ns.raiseErr(err, "failed to include %s", name)
	}
	f.Emit(text)
}

// bind checks that the compiled unit runs in the frame it was built for.
func (ns *Namespace) bind(offset int) {
	if f := ns.frame(); f.Offset != offset {
		ns.raise("snippet bound to line %d runs in frame of line %d", offset, f.Offset)
	}
}

// line records the statement about to run, for locating panics.
func (ns *Namespace) line(n int) { ns.frame().line = n }

func (ns *Namespace) inFile() string { return ns.frame().InFile }

func (ns *Namespace) outFile() string { return ns.frame().OutFile }

func (ns *Namespace) firstLineNum() int { return ns.frame().Offset }

func (ns *Namespace) previous() string { return ns.frame().Previous }

func (ns *Namespace) option(name string) string {
	v, ok := ns.options[name]
	if !ok {
		ns.raise("unknown option '%s'", name)
	}
	return v
}

func (ns *Namespace) define(name, def string) string {
	if v, ok := ns.defines[name]; ok {
		return v
	}
	return def
}

func (ns *Namespace) configProperty(name, def string) string {
	if ns.providers.Config == nil {
		return def
	}
	if v, ok := ns.providers.Config.Lookup(name); ok {
		return v
	}
	return def
}

func (ns *Namespace) configProperties() map[string]string {
	if ns.providers.Config == nil {
		return map[string]string{}
	}
	return ns.providers.Config.All()
}

func (ns *Namespace) properties() PropertySource {
	if ns.providers.Properties == nil {
		ns.raise("no device tree properties configured")
	}
	return ns.providers.Properties
}

// required aborts with a missing-property error.
func (ns *Namespace) required(name string, cause error) {
	re := ns.located(ns.stack.Top(), 0, fmt.Sprintf("Device tree property '%s' not defined.", name),
		errors.Mark(cause, errors.ErrPropertyRequired))
	panic(re)
}

// lookup resolves a required flat property.
func (ns *Namespace) lookup(name string, get func() (string, error)) string {
	v, err := get()
	if err == nil {
		return v
	}
	if errors.IsNotFound(err) {
		ns.required(name, err)
	}
	ns.raiseErr(err, "failed to read device tree property '%s'", name)
	return ""
}

func (ns *Namespace) deviceTreeProperty(name string) string {
	p := ns.properties()
	return ns.lookup(name, func() (string, error) { return p.Property(name) })
}

func (ns *Namespace) deviceTreePropertyDefault(name, def string) string {
	v, err := ns.properties().Property(name)
	switch {
	case err == nil:
		return v
	case errors.IsNotFound(err):
		return def
	}
	ns.raiseErr(err, "failed to read device tree property '%s'", name)
	return ""
}

func (ns *Namespace) deviceTreeProperties() map[string]string {
	props, err := ns.properties().Properties()
	if err != nil {
		ns.raiseErr(err, "failed to read device tree properties")
	}
	return props
}

func (ns *Namespace) controllerCount(deviceType string) int {
	n, err := ns.properties().ControllerCount(deviceType)
	if err != nil {
		ns.raiseErr(err, "failed to count %s controllers", deviceType)
	}
	return n
}

func (ns *Namespace) controllerPrefix(deviceType string, idx int) string {
	p := ns.properties()
	return ns.lookup(fmt.Sprintf("%s controller %d", deviceType, idx), func() (string, error) {
		return p.ControllerPrefix(deviceType, idx)
	})
}

func (ns *Namespace) controllerProperty(deviceType string, idx int, property string) string {
	p := ns.properties()
	return ns.lookup(property, func() (string, error) {
		return p.ControllerProperty(deviceType, idx, property)
	})
}

func (ns *Namespace) nodes() NodeSource {
	if ns.providers.Nodes == nil {
		ns.raise("no device tree database configured")
	}
	return ns.providers.Nodes
}

func (ns *Namespace) setDriverCompatibles(compatibles ...string) {
	sel, err := ns.nodes().Select(compatibles)
	if err != nil {
		ns.raiseErr(err, "failed to select compatibles %v", compatibles)
	}
	ns.selection = sel
}

func (ns *Namespace) unsetDriverCompatibles() { ns.selection = nil }

func (ns *Namespace) compatibleLabels() []string {
	labels, err := ns.nodes().Labels(ns.selection)
	if err != nil {
		ns.raiseErr(err, "failed to list compatible labels")
	}
	return labels
}

func (ns *Namespace) nodeProperty(label, path string) string {
	v, err := ns.nodes().NodeProperty(ns.selection, label, path)
	if err != nil {
		if errors.IsNotFound(err) {
			ns.required(label+"/"+path, err)
		}
		ns.raiseErr(err, "failed to read %s of %s", path, label)
	}
	return devicetree.FormatValue(v)
}

func (ns *Namespace) nodePropertyDefault(label, path, def string) string {
	v, err := ns.nodes().NodeProperty(ns.selection, label, path)
	if err != nil {
		if errors.IsNotFound(err) {
			return def
		}
		ns.raiseErr(err, "failed to read %s of %s", path, label)
	}
	return devicetree.FormatValue(v)
}

func (ns *Namespace) instanceName(idx int) string {
	name, err := devicetree.InstanceName(ns.selection, idx)
	if err != nil {
		ns.raiseErr(err, "failed to name instance %d", idx)
	}
	return name
}

func (ns *Namespace) structName(idx int, suffix string) string {
	name, err := devicetree.StructName(ns.selection, idx, suffix)
	if err != nil {
		ns.raiseErr(err, "failed to name struct %d", idx)
	}
	return name
}

// guardCompatibles emits a guard comment and halts the document unless
// the hardware declares one of the compatibles.
func (ns *Namespace) guardCompatibles(compatibles ...string) bool {
	f := ns.frame()
	present, err := ns.nodes().HasAny(compatibles)
	if err != nil {
		ns.raiseErr(err, "failed to check compatibles %v", compatibles)
	}
	f.Emit(fmt.Sprintf("/* Guard(%s) */\n", strings.Join(compatibles, ", ")))
	if !present {
		f.Halt.Stop()
	}
	return present
}

func (ns *Namespace) stopCodeGeneration() { ns.frame().Halt.Stop() }

func (ns *Namespace) codeGenerationStopped() bool { return ns.frame().Halt.Stopped() }

// guardInclude halts a template included a second time.
func (ns *Namespace) guardInclude() {
	f := ns.frame()
	if ns.guarded[f.InFile] {
		f.Halt.Stop()
		return
	}
	ns.guarded[f.InFile] = true
}

// importModule evaluates a module file once per namespace. Calls with a
// literal name are loaded before the snippet compiles, so the module's
// declarations are usable in the same snippet. Imports the namespace
// already has are dropped from the module.
func (ns *Namespace) importModule(name string) {
	if err := ns.loadModule(name); err != nil {
		ns.raiseErr(err, "failed to import module %s", name)
	}
}

func (ns *Namespace) loadModule(name string) error {
	if ns.modules[name] {
		return nil
	}
	if ns.providers.Modules == nil {
		return errors.Newf("no module search path configured")
	}
	path, err := ns.providers.Modules.FindModule(name)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read module %s", name)
	}
	text, added, err := dropImported(path, src, ns.imports)
	if err == nil {
		_, err = ns.interp.Eval(text)
	}
	if err != nil {
		return moduleError(path, name, err)
	}
	for n, p := range added {
		ns.imports[n] = p
	}
	ns.modules[name] = true
	ns.log.Debugw("module imported", logger.FieldSource, name, logger.FieldPath, path)
	return nil
}

func moduleError(path, name string, err error) *report.Error {
	line := 0
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		line = list[0].Pos.Line
	} else if m := positionRe.FindStringSubmatch(err.Error()); m != nil {
		line, _ = strconv.Atoi(m[1])
	}
	return &report.Error{
		Kind:    report.KindCompile,
		File:    path,
		Line:    line,
		Message: fmt.Sprintf("failed to import module %s", name),
		Err:     err,
	}
}

func (ns *Namespace) requireVersion(constraint string) {
	ok, err := ns.version.Satisfies(constraint)
	if err != nil {
		ns.raiseErr(err, "invalid version requirement '%s'", constraint)
	}
	if !ok {
		ns.raise("codegen version %s does not satisfy '%s'", ns.version.Version, constraint)
	}
}

// raiseAt aborts generation with msg, located frameOffset frames below
// the current one and lineOffset lines past its begin marker.
func (ns *Namespace) raiseAt(msg string, frameOffset, lineOffset int) {
	panic(ns.located(ns.stack.At(frameOffset), lineOffset, msg, nil))
}

func (ns *Namespace) msg(s string) {
	f := ns.frame()
	ns.log.Infow(s, logger.FieldFile, f.InFile, logger.FieldSnippet, f.SnippetID())
}
