package main

import (
	"fmt"
	"log"
	"net"
	"os"

	"github.com/nautilusPrime/deeplens-facerec/protocol"
)

func main() {
	sock := protocol.DefaultSockAddress()
	if len(os.Args) > 1 {
		sock = os.Args[1]
	}

	conn, err := net.Dial("unix", sock)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	query(conn, protocol.ActionStatus)
	query(conn, protocol.ActionIdentity)
}

func query(conn net.Conn, action protocol.Action) {
	if err := protocol.WriteReq(conn, action); err != nil {
		log.Fatal(err)
	}

	res, err := protocol.ReadRes(conn)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s: %s\n", action, res.Status)
	if res.Error != "" {
		fmt.Printf("  error: %s\n", res.Error)
	}
	for k, v := range res.Extras {
		fmt.Printf("  %s: %s\n", k, v)
	}
}
