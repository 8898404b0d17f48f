// Package thread pins the calling OS thread to a CPU core. Used to keep
// the inference loop off the cores serving the camera ISR on small boards.
package thread

/*
   #define _GNU_SOURCE
   #include <sched.h>
   #include <pthread.h>

   void set_cpu_affinity(int core_id) {
       cpu_set_t cpuset;
       CPU_ZERO(&cpuset);
       CPU_SET(core_id, &cpuset);
       pthread_setaffinity_np(pthread_self(), sizeof(cpu_set_t), &cpuset);
   }
*/
import "C"

import "runtime"

// Pin locks the goroutine to its OS thread and binds that thread to the
// given core.
func Pin(coreID int) {
	runtime.LockOSThread()
	C.set_cpu_affinity(C.int(coreID))
}
