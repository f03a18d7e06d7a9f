package gconf

import (
	"reflect"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/x"
)

// OwnedConfig must have an Owner field. A configuration update must be
// authorized by the owner in order to apply the change.
type OwnedConfig interface {
	Configuration
	GetOwner() fluida.Address
}

// Update loads the current configuration of the package into config, applies
// all non zero fields of the patch and saves the result.
//
// The configuration must already exist: it is created by the genesis and
// never bootstrapped by an update. The change is authorized only when the
// current configuration owner is present in the authentication context.
func Update(ctx fluida.Context, db Store, auth x.Authenticator, pkg string, config, patch OwnedConfig) error {
	if err := Load(db, pkg, config); err != nil {
		if errors.ErrNotFound.Is(err) {
			return errors.Wrap(errors.ErrUnauthorized, "configuration does not exist and cannot be initialized")
		}
		return errors.Wrap(err, "load current configuration")
	}

	owner := config.GetOwner()
	if owner == nil {
		return errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	if !auth.HasAddress(ctx, owner) {
		return errors.Wrap(errors.ErrUnauthorized, "owner did not sign transaction")
	}

	if err := applyPatch(config, patch); err != nil {
		return errors.Wrap(err, "cannot patch config")
	}
	if err := Save(db, pkg, config); err != nil {
		return errors.Wrap(err, "cannot save updated config")
	}
	return nil
}

func applyPatch(config, patch OwnedConfig) error {
	pType := reflect.TypeOf(patch)
	cType := reflect.TypeOf(config)
	if pType != cType || cType.Kind() != reflect.Ptr || cType.Elem().Kind() != reflect.Struct {
		return errors.Wrapf(errors.ErrType, "patch %T does not match configuration %T", patch, config)
	}

	cval := reflect.ValueOf(config).Elem()
	pval := reflect.ValueOf(patch).Elem()

	for i := 0; i < cval.NumField(); i++ {
		got := pval.Field(i)

		// Zero values do not update the original configuration.
		if isZero(got) {
			continue
		}

		cval.Field(i).Set(got)
	}
	return nil
}

// isZero returns true if given value represents a zero value of a given type.
func isZero(val reflect.Value) bool {
	zero := reflect.Zero(val.Type()).Interface()
	return reflect.DeepEqual(val.Interface(), zero)
}
