package reports

import (
	"context"
	"encoding/json"

	"github.com/itsneelabh/cashier/pkg/api"
)

type getterFunc func(out interface{}) error

func (f getterFunc) Get(ctx context.Context, req api.Request, out interface{}) error {
	return f(out)
}

func jsonInto(body string, out interface{}) error {
	return json.Unmarshal([]byte(body), out)
}
