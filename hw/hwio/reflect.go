package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// InitRegs initializes all hwio-tagged fields of the struct pointed to by
// bank: register names, reset values, read-only masks and callback methods.
// Tag grammar (comma separated):
//
//	offset=0xNN   address of the field within its bank (hex or decimal)
//	bank=N        ordinal bank number (default 0)
//	size=0xNN     Mem: buffer size (allocated if nil); Device: range size
//	vsize=0xNN    Mem: virtual (mirrored) size, defaults to size
//	reset=0xNN    Reg8/Reg16 power-on value
//	rwmask=0xNN   writable bits (default all)
//	rcb[=Name]    read callback, default method Read<FIELDNAME>
//	wcb[=Name]    write callback, default method Write<FIELDNAME>
//	pcb[=Name]    peek callback, default method Peek<FIELDNAME>
//	readonly      bus writes are rejected
//	writeonly     bus reads return 0
func InitRegs(bank any) error {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("hwio: InitRegs requires a pointer to struct, got %T", bank)
	}

	st := v.Elem()
	for i := range st.NumField() {
		field := st.Type().Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return fmt.Errorf("hwio: field %s: %w", field.Name, err)
		}

		switch ptr := st.Field(i).Addr().Interface().(type) {
		case *Reg8:
			err = initReg8(ptr, v, field.Name, opts)
		case *Reg16:
			err = initReg16(ptr, v, field.Name, opts)
		case *Mem:
			err = initMem(ptr, v, field.Name, opts)
		case *Device:
			err = initDevice(ptr, v, field.Name, opts)
		default:
			err = fmt.Errorf("unsupported hwio field type %s", field.Type)
		}
		if err != nil {
			return fmt.Errorf("hwio: field %s: %w", field.Name, err)
		}
	}
	return nil
}

// MustInitRegs is like InitRegs but panics on error. Register banks are
// static hardware descriptions, a bad tag is a programming error.
func MustInitRegs(bank any) {
	if err := InitRegs(bank); err != nil {
		panic(err)
	}
}

type tagOpts map[string]string

func parseTag(tag string) (tagOpts, error) {
	opts := make(tagOpts)
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, _ := strings.Cut(part, "=")
		switch key {
		case "offset", "bank", "size", "vsize", "reset", "rwmask",
			"rcb", "wcb", "pcb", "readonly", "writeonly":
			opts[key] = val
		default:
			return nil, fmt.Errorf("unknown tag option %q", key)
		}
	}
	return opts, nil
}

func (opts tagOpts) uint(key string, def uint64) (uint64, error) {
	val, ok := opts[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseUint(val, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("option %s: %w", key, err)
	}
	return n, nil
}

func (opts tagOpts) has(key string) bool {
	_, ok := opts[key]
	return ok
}

// method resolves a callback option to a bank method. The default name is
// prefix + the field name uppercased (WriteFREQ, ReadSTATUS, ...).
func method[T any](bank reflect.Value, opts tagOpts, opt, prefix, fieldName string) (T, error) {
	var zero T
	name, ok := opts[opt]
	if !ok {
		return zero, nil
	}
	if name == "" {
		name = prefix + strings.ToUpper(fieldName)
	}
	m := bank.MethodByName(name)
	if !m.IsValid() {
		return zero, fmt.Errorf("callback method %s not found", name)
	}
	fn, ok := m.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("callback method %s has wrong signature %T", name, m.Interface())
	}
	return fn, nil
}

func rwFlags(opts tagOpts) RWFlags {
	var flags RWFlags
	if opts.has("readonly") {
		flags |= ReadOnlyFlag
	}
	if opts.has("writeonly") {
		flags |= WriteOnlyFlag
	}
	return flags
}

func initReg8(reg *Reg8, bank reflect.Value, name string, opts tagOpts) error {
	reset, err := opts.uint("reset", 0)
	if err != nil {
		return err
	}
	rwmask, err := opts.uint("rwmask", 0xFF)
	if err != nil {
		return err
	}
	if reset > 0xFF || rwmask > 0xFF {
		return fmt.Errorf("value too big for 8-bit register")
	}

	reg.Name = name
	reg.Value = uint8(reset)
	reg.RoMask = ^uint8(rwmask)
	reg.Flags = rwFlags(opts)

	if reg.ReadCb, err = method[func(uint8) uint8](bank, opts, "rcb", "Read", name); err != nil {
		return err
	}
	if reg.PeekCb, err = method[func(uint8) uint8](bank, opts, "pcb", "Peek", name); err != nil {
		return err
	}
	if reg.WriteCb, err = method[func(uint8, uint8)](bank, opts, "wcb", "Write", name); err != nil {
		return err
	}
	return nil
}

func initReg16(reg *Reg16, bank reflect.Value, name string, opts tagOpts) error {
	reset, err := opts.uint("reset", 0)
	if err != nil {
		return err
	}
	rwmask, err := opts.uint("rwmask", 0xFFFF)
	if err != nil {
		return err
	}
	if reset > 0xFFFF || rwmask > 0xFFFF {
		return fmt.Errorf("value too big for 16-bit register")
	}

	reg.Name = name
	reg.Value = uint16(reset)
	reg.RoMask = ^uint16(rwmask)
	reg.Flags = rwFlags(opts)

	if reg.ReadCb, err = method[func(uint16) uint16](bank, opts, "rcb", "Read", name); err != nil {
		return err
	}
	if reg.PeekCb, err = method[func(uint16) uint16](bank, opts, "pcb", "Peek", name); err != nil {
		return err
	}
	if reg.WriteCb, err = method[func(uint16, uint16)](bank, opts, "wcb", "Write", name); err != nil {
		return err
	}
	return nil
}

func initMem(m *Mem, bank reflect.Value, name string, opts tagOpts) error {
	size, err := opts.uint("size", uint64(len(m.Data)))
	if err != nil {
		return err
	}
	vsize, err := opts.uint("vsize", size)
	if err != nil {
		return err
	}
	if size == 0 {
		return fmt.Errorf("mem requires a size")
	}

	m.Name = name
	if m.Data == nil {
		m.Data = make([]byte, size)
	}
	m.VSize = int(vsize)
	if opts.has("readonly") {
		m.Flags |= MemFlag8ReadOnly
	}
	if m.WriteCb, err = method[func(uint16, uint8)](bank, opts, "wcb", "Write", name); err != nil {
		return err
	}
	return nil
}

func initDevice(d *Device, bank reflect.Value, name string, opts tagOpts) error {
	size, err := opts.uint("size", uint64(d.Size))
	if err != nil {
		return err
	}
	if size == 0 {
		return fmt.Errorf("device requires a size")
	}

	d.Name = name
	d.Size = int(size)
	d.Flags = rwFlags(opts)

	if d.ReadCb, err = method[func(uint16) uint8](bank, opts, "rcb", "Read", name); err != nil {
		return err
	}
	if d.PeekCb, err = method[func(uint16) uint8](bank, opts, "pcb", "Peek", name); err != nil {
		return err
	}
	if d.WriteCb, err = method[func(uint16, uint8)](bank, opts, "wcb", "Write", name); err != nil {
		return err
	}
	return nil
}

// bankReg is one mappable register of a bank, as found by bankGetRegs.
type bankReg struct {
	offset uint16
	regPtr any
}

// bankGetRegs collects the hwio fields of bank belonging to bankNum that
// carry an offset (fields without one are not mappable through MapBank).
func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("hwio: bankGetRegs requires a pointer to struct, got %T", bank)
	}

	var regs []bankReg
	st := v.Elem()
	for i := range st.NumField() {
		field := st.Type().Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("hwio: field %s: %w", field.Name, err)
		}
		if !opts.has("offset") {
			continue
		}
		bnum, err := opts.uint("bank", 0)
		if err != nil {
			return nil, err
		}
		if int(bnum) != bankNum {
			continue
		}
		offset, err := opts.uint("offset", 0)
		if err != nil {
			return nil, err
		}
		regs = append(regs, bankReg{
			offset: uint16(offset),
			regPtr: st.Field(i).Addr().Interface(),
		})
	}
	return regs, nil
}
