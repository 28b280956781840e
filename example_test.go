package objmap_test

import (
	"errors"
	"fmt"

	"github.com/danderson/objmap"
	"github.com/danderson/objmap/codec"
	"github.com/danderson/objmap/objmaptest"
)

func Example() {
	m, err := objmaptest.Register(objmap.NewBuilder(nil)).Build()
	if err != nil {
		panic(err)
	}

	bs, err := m.Marshal(codec.JSON{}, objmaptest.SampleEmail())
	if err != nil {
		panic(err)
	}
	fmt.Println(string(bs))

	var e objmaptest.Email
	err = m.Unmarshal(codec.JSON{}, []byte(`{"sender":"nobody","receiver":"bob@example.com","subject":" "}`), &e)
	fmt.Println(err)
	// Output:
	// {"sender":"alice@example.com","receiver":"bob@example.com","subject":"Lunch","body":"Noon at the usual place?"}
	// objmap: 2 validation errors
	//   sender: invalid email address "nobody"
	//   subject: subject must not be empty
}

func ExampleBuilder_Build_failure() {
	_, err := objmaptest.RegisterBroken(objmap.NewBuilder(nil)).Build()
	var be *objmap.BuildError
	if !errors.As(err, &be) {
		panic(err)
	}
	for _, f := range be.Report.Failures {
		fmt.Println(f.Type, f.Capability)
		for _, c := range f.Chain {
			fmt.Println("required by:", c)
		}
	}
	// Output:
	// objmaptest.Email duplex
	// required by: objmaptest.Email -> manually added
	// chan []uint8 serialization
	// required by: chan []uint8 -> objmaptest.Attachment -> manually added
}

func ExampleMapper_Definitions() {
	m, err := objmap.NewBuilder(nil).
		Add(objmap.TypeFor[map[string][]int](), objmap.Serialization).
		Build()
	if err != nil {
		panic(err)
	}
	for def := range m.Definitions().All() {
		fmt.Println(def)
	}
	// Output:
	// map[string][]int (serialization)
	//   serializer: map of string to []int
	// string (serialization)
	//   serializer: builtin string
	// []int (serialization)
	//   serializer: list of int
	// int (serialization)
	//   serializer: builtin int
}
