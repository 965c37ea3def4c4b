package protocol

import (
	"mercator-hq/relayscrub/pkg/processor"
	"mercator-hq/relayscrub/pkg/types"
)

// User describes the end user affected by an event.
type User struct {
	ID        types.Annotated[string]
	Email     types.Annotated[string]
	IPAddress types.Annotated[string]
	Username  types.Annotated[string]
	Name      types.Annotated[string]
	Data      types.Annotated[types.Object[types.Value]]
	Other     types.Object[types.Value]
}

var (
	userIDAttrs       = processor.FieldAttrs{Name: "id", MaxChars: 128, Pii: true}
	userEmailAttrs    = processor.FieldAttrs{Name: "email", MaxChars: 75, Pii: true}
	userIPAttrs       = processor.FieldAttrs{Name: "ip_address", MaxChars: 45, Pii: true}
	userUsernameAttrs = processor.FieldAttrs{Name: "username", MaxChars: 128, Pii: true}
	userNameAttrs     = processor.FieldAttrs{Name: "name", MaxChars: 128, Pii: true}
	userDataAttrs     = processor.FieldAttrs{Name: "data", Pii: true}
)

// ValueType implements processor.Traversable.
func (u *User) ValueType() processor.ValueType {
	return processor.TypeUser | processor.TypeObject
}

// ProcessChildren implements processor.Traversable.
func (u *User) ProcessChildren(p processor.Processor, state *processor.ProcessingState) error {
	if err := processor.ProcessField(&u.ID, p, state, "id", &userIDAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&u.Email, p, state, "email", &userEmailAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&u.IPAddress, p, state, "ip_address", &userIPAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&u.Username, p, state, "username", &userUsernameAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&u.Name, p, state, "name", &userNameAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&u.Data, p, state, "data", &userDataAttrs); err != nil {
		return err
	}
	return processor.ProcessOther(&u.Other, p, state)
}

func userFromObject(obj *types.Object[types.Value]) User {
	u := User{
		ID:        asString(take(obj, "id")),
		Email:     asString(take(obj, "email")),
		IPAddress: asString(take(obj, "ip_address")),
		Username:  asString(take(obj, "username")),
		Name:      asString(take(obj, "name")),
		Data:      asObject(take(obj, "data")),
	}
	u.Other = *obj
	return u
}

// ToValue converts the user into an untyped object.
func (u *User) ToValue() types.Value {
	obj := types.NewObject[types.Value]()
	put(obj, "id", liftString(u.ID))
	put(obj, "email", liftString(u.Email))
	put(obj, "ip_address", liftString(u.IPAddress))
	put(obj, "username", liftString(u.Username))
	put(obj, "name", liftString(u.Name))
	put(obj, "data", liftObject(u.Data))
	appendOther(obj, &u.Other)
	return types.ObjectValue(obj)
}
