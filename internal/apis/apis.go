// Package apis holds the D-Bus plumbing shared by the desktop portal
// clients: method calls, property reads, and variant constructors.
package apis

import (
	"context"
	"reflect"

	"github.com/godbus/dbus/v5"
)

const (
	ObjectName        = "org.freedesktop.portal.Desktop"
	ObjectPath        = "/org/freedesktop/portal/desktop"
	CallBaseName      = "org.freedesktop.portal"
	PropertiesGetName = "org.freedesktop.DBus.Properties.Get"
)

// Call invokes a portal method on the desktop object and stores its single
// return value.
func Call(ctx context.Context, callName string, args ...any) (any, error) {
	call, err := callOnObject(ctx, ObjectPath, callName, args...)
	if err != nil {
		return nil, err
	}

	var result any
	err = call.Store(&result)
	return result, err
}

// CallOnObject invokes a method on an arbitrary portal object, discarding
// return values.
func CallOnObject(ctx context.Context, path dbus.ObjectPath, callName string, args ...any) error {
	_, err := callOnObject(ctx, path, callName, args...)
	return err
}

func callOnObject(ctx context.Context, path dbus.ObjectPath, callName string, args ...any) (*dbus.Call, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}

	obj := conn.Object(ObjectName, path)
	call := obj.CallWithContext(ctx, callName, 0, args...)
	return call, call.Err
}

// GetProperty reads a property of the desktop portal object.
func GetProperty(ctx context.Context, interfaceName, property string) (any, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}

	obj := conn.Object(ObjectName, ObjectPath)
	call := obj.CallWithContext(ctx, PropertiesGetName, 0, interfaceName, property)
	if call.Err != nil {
		return nil, call.Err
	}

	var value any
	err = call.Store(&value)
	return value, err
}

var (
	boolSignature   = dbus.SignatureOfType(reflect.TypeOf(false))
	stringSignature = dbus.SignatureOfType(reflect.TypeOf(""))
	uint32Signature = dbus.SignatureOfType(reflect.TypeOf(uint32(0)))
)

// VariantBool wraps a bool for a portal options dictionary.
func VariantBool(input bool) dbus.Variant {
	return dbus.MakeVariantWithSignature(input, boolSignature)
}

// VariantString wraps a string for a portal options dictionary.
func VariantString(input string) dbus.Variant {
	return dbus.MakeVariantWithSignature(input, stringSignature)
}

// VariantUint32 wraps a uint32 for a portal options dictionary.
func VariantUint32(input uint32) dbus.Variant {
	return dbus.MakeVariantWithSignature(input, uint32Signature)
}
