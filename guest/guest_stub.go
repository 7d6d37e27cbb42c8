//go:build !wasip1

package guest

import (
	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

func unavailable(name string) hostCall {
	res := wireformat.EncodeResult(wireformat.Err(entities.ErrorKindNotFound, "host import turbo."+name+" is only available in wasip1 builds"))
	return func([]byte) []byte { return res }
}

// Native builds have no host; every import reports NotFound.
var imports = hostImports{
	hotLoad:     unavailable("hot_load"),
	hotSave:     unavailable("hot_save"),
	channelSend: unavailable("channel_send"),
	watch:       unavailable("watch"),
}
